package directx

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver/emulated"
)

func TestAdapters(t *testing.T) {
	b, _ := newTestBackend(t, testConfig())

	adapters, r := b.Adapters()
	if !r.OK() {
		t.Fatalf("Adapters() = %v", r)
	}
	want := []backend.Adapter{
		{Index: 0, Name: "Discrete GPU", Type: gpucontext.AdapterTypeDiscrete},
		{Index: 1, Name: "Integrated GPU", Type: gpucontext.AdapterTypeIntegrated},
	}
	if len(adapters) != len(want) {
		t.Fatalf("Adapters() = %+v, want %+v", adapters, want)
	}
	for i := range want {
		if adapters[i] != want[i] {
			t.Errorf("Adapters()[%d] = %+v, want %+v", i, adapters[i], want[i])
		}
	}
}

func TestAdaptersEmpty(t *testing.T) {
	cfg := testConfig()
	cfg.Adapters = nil
	b, _ := newTestBackend(t, cfg)

	adapters, r := b.Adapters()
	if !r.OK() {
		t.Fatalf("Adapters() = %v, want success with no adapters", r)
	}
	if len(adapters) != 0 {
		t.Errorf("Adapters() = %+v, want none", adapters)
	}
	if _, r := b.Outputs(0); !errors.Is(r.Err, backend.ErrNotFound) {
		t.Errorf("Outputs(0) = %v, want ErrNotFound", r)
	}
}

func TestAdaptersFactoryFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Faults = emulated.FailFactory
	b, _ := newTestBackend(t, cfg)

	if _, r := b.Adapters(); r.OK() || !errors.Is(r.Err, backend.ErrCreation) {
		t.Errorf("Adapters() = %v, want ErrCreation", r)
	}
}

func TestOutputs(t *testing.T) {
	b, _ := newTestBackend(t, testConfig())

	outputs, r := b.Outputs(0)
	if !r.OK() {
		t.Fatalf("Outputs(0) = %v", r)
	}
	if len(outputs) != 1 || outputs[0].DeviceName != `\\.\DISPLAY1` || outputs[0].Index != 0 {
		t.Errorf("Outputs(0) = %+v, want the discrete adapter's display", outputs)
	}
}

func TestEnumerationNotFound(t *testing.T) {
	b, _ := newTestBackend(t, testConfig())

	tests := []struct {
		name    string
		call    func() backend.Result
		message string
	}{
		{"outputs of adapter 2", func() backend.Result { _, r := b.Outputs(2); return r },
			"Could not find adapter at index position 2."},
		{"outputs of adapter 99", func() backend.Result { _, r := b.Outputs(99); return r },
			"Could not find adapter at index position 99."},
		{"outputs of adapter -1", func() backend.Result { _, r := b.Outputs(-1); return r },
			"Could not find adapter at index position -1."},
		{"modes of adapter 5", func() backend.Result { _, r := b.DisplayModes(5, 0); return r },
			"Could not find adapter at index position 5."},
		{"modes of output 3", func() backend.Result { _, r := b.DisplayModes(0, 3); return r },
			"Could not find output device at index position 3."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.call()
			if r.OK() {
				t.Fatal("enumeration past the end succeeded")
			}
			if !errors.Is(r.Err, backend.ErrNotFound) {
				t.Errorf("Err = %v, want ErrNotFound", r.Err)
			}
			if r.Message != tt.message {
				t.Errorf("Message = %q, want %q", r.Message, tt.message)
			}
		})
	}
}

func TestDisplayModes(t *testing.T) {
	b, _ := newTestBackend(t, testConfig())

	modes, r := b.DisplayModes(0, 0)
	if !r.OK() {
		t.Fatalf("DisplayModes(0, 0) = %v", r)
	}
	if len(modes) == 0 {
		t.Fatal("DisplayModes(0, 0) returned no modes")
	}
	for i, m := range modes {
		if m.Width <= 0 || m.Height <= 0 || m.RefreshRate <= 0 {
			t.Errorf("mode %d = %+v, want positive width, height and refresh rate", i, m)
		}
		if m.Index != i {
			t.Errorf("mode %d has Index %d", i, m.Index)
		}
	}

	// Platform order is kept: 800x600 is reported first, and the NTSC rate
	// 60000/1001 truncates to 59.
	if modes[0].Width != 800 || modes[0].Height != 600 {
		t.Errorf("first mode = %+v, want 800x600", modes[0])
	}
	if modes[2].Width != 1920 || modes[2].RefreshRate != 59 {
		t.Errorf("third mode = %+v, want 1920x1080@59", modes[2])
	}
}

func TestDisplayModeFormat(t *testing.T) {
	// Modes are enumerated in RGBA16Float by default while the swap chain
	// renders RGBA8Unorm, so an enumerated mode is not guaranteed to be
	// renderable as listed.
	if o := defaultOptions(); o.modeFormat == o.bufferFormat {
		t.Errorf("default mode format %v equals the back buffer format", o.modeFormat)
	}

	tests := []struct {
		name   string
		format gputypes.TextureFormat
		want   int
	}{
		{"hdr", gputypes.TextureFormatRGBA16Float, 5},
		{"back buffer format", gputypes.TextureFormatRGBA8Unorm, 5},
		{"unsupported format", gputypes.TextureFormatBGRA8Unorm, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBackend(t, testConfig(), WithModeFormat(tt.format))
			modes, r := b.DisplayModes(0, 0)
			if !r.OK() {
				t.Fatalf("DisplayModes() = %v", r)
			}
			if len(modes) != tt.want {
				t.Errorf("DisplayModes() in %v = %d modes, want %d", tt.format, len(modes), tt.want)
			}
		})
	}
}

func TestEnumerationIndependentOfLifecycle(t *testing.T) {
	b, drv := newTestBackend(t, testConfig())

	before, r := b.Adapters()
	if !r.OK() {
		t.Fatalf("Adapters() before Initialise = %v", r)
	}
	if drv.Live() != 0 {
		t.Errorf("enumeration left %d driver objects alive", drv.Live())
	}

	mustInitialise(t, b)
	during, _ := b.Adapters()
	if len(during) != len(before) {
		t.Errorf("Adapters() while initialised = %d, want %d", len(during), len(before))
	}
	if b.State() != StateInitialized {
		t.Errorf("enumeration changed the state to %v", b.State())
	}

	if r := b.Destroy(context.Background()); !r.OK() {
		t.Fatalf("Destroy() = %v", r)
	}
	after, r := b.Adapters()
	if !r.OK() || len(after) != len(before) {
		t.Errorf("Adapters() after Destroy = %d, %v", len(after), r)
	}
}

func TestAdapterType(t *testing.T) {
	tests := []struct {
		in   gputypes.DeviceType
		want gpucontext.AdapterType
	}{
		{gputypes.DeviceTypeDiscreteGPU, gpucontext.AdapterTypeDiscrete},
		{gputypes.DeviceTypeIntegratedGPU, gpucontext.AdapterTypeIntegrated},
		{gputypes.DeviceTypeCPU, gpucontext.AdapterTypeSoftware},
		{gputypes.DeviceTypeVirtualGPU, gpucontext.AdapterTypeUnknown},
		{gputypes.DeviceTypeOther, gpucontext.AdapterTypeUnknown},
	}
	for _, tt := range tests {
		if got := adapterType(tt.in); got != tt.want {
			t.Errorf("adapterType(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
