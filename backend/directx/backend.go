package directx

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver"
)

// bufferCount is the number of swap chain buffers.
const bufferCount = 2

// State is the lifecycle state of a Backend.
type State int

// Backend states.
const (
	StateUninitialized State = iota
	StateInitialized
	StateRendering
	StateResizing
	// StateFailed is terminal: a backend whose Initialise failed must be
	// destroyed and discarded.
	StateFailed
	StateDestroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRendering:
		return "rendering"
	case StateResizing:
		return "resizing"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// init registers the Direct3D 12 backend on package import.
func init() {
	backend.Register(gputypes.BackendDX12, func(target backend.Target) backend.GraphicsBackend {
		return New(target)
	})
}

// Backend is the Direct3D 12 graphics backend for one window.
//
// A Backend is driven by a single goroutine. Exactly one frame is in
// flight at a time: Render waits for the GPU to retire each frame before
// returning, so the single command allocator can be reset safely.
type Backend struct {
	opts   options
	target backend.Target
	state  State

	factory driver.Factory
	device  driver.Device
	warp    bool

	fence      driver.Fence
	fenceValue uint64

	rtvSize       uint32
	dsvSize       uint32
	cbvSrvUavSize uint32

	queue     driver.CommandQueue
	allocator driver.CommandAllocator
	list      driver.CommandList
	recording bool
	// submitted is set while work has been queued since the last flush.
	submitted bool

	swapChain driver.SwapChain
	rtvHeap   driver.DescriptorHeap
	dsvHeap   driver.DescriptorHeap
	buffers   [bufferCount]driver.Resource
	depth     driver.Resource
	current   int

	// surfaceValid is set while the buffers, the depth buffer and their
	// views all exist. A resize that fails part way clears it.
	surfaceValid bool

	width    int
	height   int
	viewport driver.Viewport
	scissor  driver.Rect
}

// New creates a backend rendering into target. No platform object is
// created until Initialise.
func New(target backend.Target, opts ...Option) *Backend {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Backend{
		opts:   o,
		target: target,
		width:  max(target.Width, 1),
		height: max(target.Height, 1),
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "directx" }

// API returns gputypes.BackendDX12.
func (b *Backend) API() gputypes.Backend { return gputypes.BackendDX12 }

// State returns the lifecycle state.
func (b *Backend) State() State { return b.state }

// BufferIndex returns the swap chain buffer the next frame renders into.
func (b *Backend) BufferIndex() int { return b.current }

// Viewport returns the viewport of the current client area.
func (b *Backend) Viewport() driver.Viewport { return b.viewport }

// ScissorRect returns the scissor rectangle of the current client area.
func (b *Backend) ScissorRect() driver.Rect { return b.scissor }

// Size returns the current client area size.
func (b *Backend) Size() (width, height int) { return b.width, b.height }

// FenceValue returns the last fence value the CPU requested.
func (b *Backend) FenceValue() uint64 { return b.fenceValue }

// UsesWarp reports whether the device runs on the WARP adapter.
func (b *Backend) UsesWarp() bool { return b.warp }

// RenderTargetViews returns the number of render target views written.
func (b *Backend) RenderTargetViews() int {
	n := 0
	for _, buf := range b.buffers {
		if buf != nil {
			n++
		}
	}
	return n
}

// DepthStencilViews returns the number of depth stencil views written.
func (b *Backend) DepthStencilViews() int {
	if b.depth != nil {
		return 1
	}
	return 0
}

// usable reports whether per-frame operations are legal.
func (b *Backend) usable() bool {
	switch b.state {
	case StateInitialized, StateRendering, StateResizing:
		return true
	default:
		return false
	}
}

func (b *Backend) invalidState(op string) backend.Result {
	return backend.Fail(backend.ErrInvalidState,
		fmt.Sprintf("Cannot %s while the backend is %s.", op, b.state), nil)
}

// Initialise brings up the factory, device, fence, command objects, swap
// chain and descriptor heaps in that order, then sizes the surface. The
// first failing stage aborts; nothing is rolled back and the backend moves
// to StateFailed.
func (b *Backend) Initialise(ctx context.Context) backend.Result {
	if b.state != StateUninitialized {
		return b.invalidState("initialise")
	}
	log := syren.Logger()

	var msg strings.Builder
	msg.WriteString("Initialising DirectX.\n")

	stages := []func() backend.Result{
		b.initialiseFactory,
		b.initialiseDevice,
		b.initialiseFence,
		func() backend.Result {
			b.cacheDescriptorSizes()
			return backend.Success("Cached descriptor sizes.")
		},
		b.initialiseCommandObjects,
		func() backend.Result {
			return b.initialiseSwapChain(b.opts.refreshRate.Numerator, b.opts.refreshRate.Denominator)
		},
		b.initialiseHeaps,
		func() backend.Result {
			b.state = StateResizing
			return b.resize(ctx, b.width, b.height)
		},
	}
	for _, stage := range stages {
		r := stage()
		log.Debug("directx: initialise stage", "result", r.Status, "message", r.Message)
		if !r.OK() {
			b.state = StateFailed
			log.Warn("directx: initialise failed", "err", r.Err)
			return r
		}
		msg.WriteString(r.Message)
		msg.WriteByte('\n')
	}

	msg.WriteString("Initialising DirectX was successful.")
	b.state = StateInitialized
	log.Info("directx: initialised", "width", b.width, "height", b.height, "warp", b.warp)
	return backend.Success(msg.String())
}

// Update advances per-frame state. The backend has none of its own yet.
func (b *Backend) Update(_ context.Context) backend.Result {
	if !b.usable() {
		return b.invalidState("update")
	}
	return backend.Success("Successful.")
}

// Destroy waits for outstanding GPU work and releases every object in the
// order views, buffers, heaps, command objects, fence, device. It is safe
// to call in any state, more than once.
func (b *Backend) Destroy(ctx context.Context) backend.Result {
	if b.state == StateDestroyed {
		return backend.Success("Already destroyed.")
	}
	log := syren.Logger()

	var flushErr backend.Result
	if b.device != nil && b.queue != nil && b.fence != nil {
		if r := b.Flush(ctx); !r.OK() {
			flushErr = r
			log.Warn("directx: flush before destroy failed", "err", r.Err)
		}
	}

	b.releaseSurface()
	release(&b.swapChain)
	release(&b.dsvHeap)
	release(&b.rtvHeap)
	release(&b.list)
	release(&b.allocator)
	release(&b.queue)
	release(&b.fence)
	release(&b.device)
	release(&b.factory)

	b.state = StateDestroyed
	if flushErr.Message != "" {
		return flushErr
	}
	return backend.Success("Destroyed.")
}

// releasable is any driver object.
type releasable interface {
	Release()
}

// release releases *p, if set, and clears it.
func release[T releasable](p *T) {
	var zero T
	if any(*p) == nil {
		return
	}
	(*p).Release()
	*p = zero
}
