package directx

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/driver"
	"github.com/gogpu/syren/driver/native"
)

// Option configures a Backend during creation.
//
// Example:
//
//	// Hardware rendering through the native Direct3D 12 driver
//	b := directx.New(target)
//
//	// Emulated GPU (dependency injection for tests and headless runs)
//	drv := emulated.New(emulated.DefaultConfig())
//	b := directx.New(target, directx.WithDriver(drv.Open))
type Option func(*options)

// options holds optional configuration for Backend creation.
type options struct {
	open         driver.Opener
	bufferFormat gputypes.TextureFormat
	depthFormat  gputypes.TextureFormat
	modeFormat   gputypes.TextureFormat
	featureLevel driver.FeatureLevel
	refreshRate  driver.Rational
}

// defaultOptions returns the default backend options.
func defaultOptions() options {
	return options{
		open:         native.Open,
		bufferFormat: gputypes.TextureFormatRGBA8Unorm,
		depthFormat:  gputypes.TextureFormatDepth24PlusStencil8,
		// Display modes are reported in the HDR format even though the
		// swap chain renders in bufferFormat.
		modeFormat:   gputypes.TextureFormatRGBA16Float,
		featureLevel: driver.FeatureLevel11_0,
		refreshRate:  driver.Rational{Numerator: 60, Denominator: 1},
	}
}

// WithDriver sets the driver the backend opens its factories from.
// The default is the native Direct3D 12 driver.
func WithDriver(open driver.Opener) Option {
	return func(o *options) {
		if open != nil {
			o.open = open
		}
	}
}

// WithModeFormat sets the pixel format display modes are enumerated in.
func WithModeFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.modeFormat = f
	}
}

// WithBufferFormat sets the swap chain back buffer format.
func WithBufferFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.bufferFormat = f
	}
}

// WithFeatureLevel sets the minimum feature level of the hardware device.
func WithFeatureLevel(level driver.FeatureLevel) Option {
	return func(o *options) {
		o.featureLevel = level
	}
}

// WithRefreshRate sets the refresh rate requested for the swap chain.
func WithRefreshRate(numerator, denominator uint32) Option {
	return func(o *options) {
		if denominator != 0 {
			o.refreshRate = driver.Rational{Numerator: numerator, Denominator: denominator}
		}
	}
}
