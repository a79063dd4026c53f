package syren

import (
	"context"
	"errors"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/backend"
)

// notInitialised is the message of queries made before Initialise.
const notInitialised = "Graphics API has not been initialised."

// Renderer is the engine-facing facade. It picks a graphics API from the
// configuration, owns the backend for it, and forwards the lifecycle.
//
// A Renderer is driven by a single goroutine.
type Renderer struct {
	opts   options
	target backend.Target
	scale  float64

	config      Config
	api         backend.GraphicsBackend
	initialised bool
}

// New creates a renderer presenting into target. No backend exists until
// Initialise.
func New(target backend.Target, opts ...Option) *Renderer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Renderer{opts: o, target: target, scale: 1}
}

// NewFromWindow creates a renderer for the window behind handle. The
// initial size is taken from w in physical pixels.
func NewFromWindow(w gpucontext.WindowProvider, handle uintptr, opts ...Option) *Renderer {
	scale := w.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	width, height := w.Size()
	r := New(backend.Target{
		Window: handle,
		Width:  physical(width, scale),
		Height: physical(height, scale),
	}, opts...)
	r.scale = scale
	return r
}

// physical converts a logical size to physical pixels.
func physical(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}

// Attach routes resize notifications from events to OnResize.
func (r *Renderer) Attach(ctx context.Context, events gpucontext.EventSource) {
	events.OnResize(func(width, height int) {
		res := r.OnResize(ctx, physical(width, r.scale), physical(height, r.scale))
		if !res.OK() {
			Logger().Warn("syren: resize failed", "width", width, "height", height, "err", res.Cause())
		}
	})
}

// Initialise selects the graphics API and initialises its backend.
//
// The configured API is used when the config strong-succeeds and a backend
// is registered for it. A missing entry, an unreadable file or an
// unavailable backend fall back to Direct3D 12, and a strong success of
// the fallback backend is reported as a weak success. An invalid entry
// aborts.
func (r *Renderer) Initialise(ctx context.Context) backend.Result {
	if r.api != nil {
		return backend.Fail(backend.ErrInvalidState, "The renderer is already initialised.", nil)
	}

	api, fallback, res := r.selectAPI()
	if !res.OK() {
		return res
	}
	reason := res.Message
	if fallback {
		Logger().Warn("syren: graphics API fallback", "api", api, "reason", reason)
	}

	b := r.backendFor(api)
	if b == nil && api != gputypes.BackendDX12 {
		Logger().Warn("syren: no backend for configured API", "api", api)
		reason = "No backend is registered for " + api.String() + "."
		fallback = true
		api = gputypes.BackendDX12
		b = r.backendFor(api)
	}
	if b == nil {
		return backend.Fail(backend.ErrBackendNotAvailable,
			"No backend is registered for "+api.String()+".", nil)
	}
	r.config.API = api
	r.api = b
	r.initialised = true

	res = b.Initialise(ctx)
	if fallback && res.Status == backend.StatusStrongSuccess {
		return backend.Weak("Falling back to Direct3D 12: " + reason + "\n" + res.Message)
	}
	return res
}

// selectAPI resolves the API to use. fallback reports that the default
// was chosen because the config did not name a usable API; res then
// weak-succeeds with the reason.
func (r *Renderer) selectAPI() (api gputypes.Backend, fallback bool, res backend.Result) {
	if r.opts.api != gputypes.BackendEmpty {
		return r.opts.api, false, backend.Success("Graphics API selected by option.")
	}

	cfg, res := LoadConfig(r.opts.configPath)
	switch {
	case errors.Is(res.Err, ErrInvalidAPI):
		return gputypes.BackendEmpty, false, res
	case res.Status == backend.StatusStrongSuccess:
		return cfg.API, false, res
	default:
		return gputypes.BackendDX12, true, backend.Weak(res.Message)
	}
}

// backendFor returns a new backend for api, or nil.
func (r *Renderer) backendFor(api gputypes.Backend) backend.GraphicsBackend {
	if f, ok := r.opts.factories[api]; ok {
		return f(r.target)
	}
	return backend.Get(api, r.target)
}

// IsInitialised reports whether Initialise selected a backend.
func (r *Renderer) IsInitialised() bool { return r.initialised }

// API returns the graphics API in use, or BackendEmpty before Initialise.
func (r *Renderer) API() gputypes.Backend { return r.config.API }

// Backend returns the backend in use, or nil before Initialise.
func (r *Renderer) Backend() backend.GraphicsBackend { return r.api }

// OnResize resizes the presentation surface.
func (r *Renderer) OnResize(ctx context.Context, width, height int) backend.Result {
	if r.api == nil {
		return backend.Fail(backend.ErrNotInitialized, notInitialised, nil)
	}
	if res := r.api.OnResize(ctx, width, height); !res.OK() {
		return res
	}
	return backend.Success("Successfully resized window.")
}

// Draw renders one frame.
func (r *Renderer) Draw(ctx context.Context) backend.Result {
	if r.api == nil {
		return backend.Fail(backend.ErrNotInitialized, notInitialised, nil)
	}
	return r.api.Render(ctx)
}

// Update advances per-frame engine state.
func (r *Renderer) Update(ctx context.Context) backend.Result {
	if r.api == nil {
		return backend.Fail(backend.ErrNotInitialized, notInitialised, nil)
	}
	return r.api.Update(ctx)
}

// Destroy releases the backend. The renderer can be initialised again
// afterwards.
func (r *Renderer) Destroy(ctx context.Context) backend.Result {
	if r.api == nil {
		return backend.Success("Nothing to destroy.")
	}
	res := r.api.Destroy(ctx)
	r.api = nil
	r.initialised = false
	r.config = Config{}
	return res
}

// Adapters lists the graphics adapters, preferred first.
func (r *Renderer) Adapters() ([]backend.Adapter, backend.Result) {
	if !r.initialised {
		return nil, backend.Fail(backend.ErrNotInitialized, notInitialised, nil)
	}
	return r.api.Adapters()
}

// Outputs lists the displays attached to an adapter.
func (r *Renderer) Outputs(adapter int) ([]backend.Output, backend.Result) {
	if !r.initialised {
		return nil, backend.Fail(backend.ErrNotInitialized, notInitialised, nil)
	}
	return r.api.Outputs(adapter)
}

// DisplayModes lists the display modes of an output.
func (r *Renderer) DisplayModes(adapter, output int) ([]backend.DisplayMode, backend.Result) {
	if !r.initialised {
		return nil, backend.Fail(backend.ErrNotInitialized, notInitialised, nil)
	}
	return r.api.DisplayModes(adapter, output)
}
