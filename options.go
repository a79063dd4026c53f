package syren

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/backend"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// Graphics API from render.cfg in the working directory
//	r := syren.New(target)
//
//	// Fixed API, no config file
//	r := syren.New(target, syren.WithAPI(gputypes.BackendDX12))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	configPath string
	api        gputypes.Backend
	factories  map[gputypes.Backend]backend.Factory
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		configPath: DefaultConfigPath,
		factories:  make(map[gputypes.Backend]backend.Factory),
	}
}

// WithConfigPath sets the config file Initialise reads.
func WithConfigPath(path string) Option {
	return func(o *options) {
		o.configPath = path
	}
}

// WithAPI selects the graphics API directly. The config file is not read.
func WithAPI(api gputypes.Backend) Option {
	return func(o *options) {
		o.api = api
	}
}

// WithBackendFactory overrides the registered backend for api.
// Use this for dependency injection of a backend on an emulated driver.
//
// Example:
//
//	drv := emulated.New(emulated.DefaultConfig())
//	r := syren.New(target, syren.WithBackendFactory(gputypes.BackendDX12,
//	    func(t backend.Target) backend.GraphicsBackend {
//	        return directx.New(t, directx.WithDriver(drv.Open))
//	    }))
func WithBackendFactory(api gputypes.Backend, factory backend.Factory) Option {
	return func(o *options) {
		if factory != nil {
			o.factories[api] = factory
		}
	}
}
