package emulated

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/driver"
)

// SwapChain is an emulated flip-model swap chain.
type SwapChain struct {
	releaser
	q      *queue
	window uintptr
	desc   driver.SwapChainDesc

	// Guarded by drv.mu.
	buffers []*texture
	current int
}

func newSwapChain(q *queue, window uintptr, desc *driver.SwapChainDesc) *SwapChain {
	sc := &SwapChain{q: q, window: window, desc: *desc}
	sc.allocate()
	sc.track(q.drv, "swap chain")
	q.dev.adopt()
	q.drv.mu.Lock()
	q.dev.swapChain = sc
	q.drv.mu.Unlock()
	return sc
}

// allocate creates the buffers for the current description.
func (sc *SwapChain) allocate() {
	sc.buffers = make([]*texture, sc.desc.BufferCount)
	for i := range sc.buffers {
		sc.buffers[i] = &texture{
			name: fmt.Sprintf("back buffer %d (%dx%d)", i, sc.desc.Width, sc.desc.Height),
			desc: driver.TextureDesc{
				Width:       uint64(sc.desc.Width),
				Height:      sc.desc.Height,
				ArraySize:   1,
				MipLevels:   1,
				Format:      sc.desc.Format,
				SampleCount: 1,
				Flags:       driver.ResourceFlagAllowRenderTarget,
			},
			state: driver.ResourceStatePresent,
		}
	}
	sc.current = 0
}

// CurrentBackBufferIndex returns the buffer the next frame renders into.
func (sc *SwapChain) CurrentBackBufferIndex() int {
	sc.drv.mu.Lock()
	defer sc.drv.mu.Unlock()
	return sc.current
}

// Size returns the current buffer dimensions.
func (sc *SwapChain) Size() (width, height uint32) {
	sc.drv.mu.Lock()
	defer sc.drv.mu.Unlock()
	return sc.desc.Width, sc.desc.Height
}

// Window returns the window handle the swap chain presents to.
func (sc *SwapChain) Window() uintptr { return sc.window }

func (sc *SwapChain) Buffer(index uint32) (driver.Resource, error) {
	sc.drv.mu.Lock()
	if int(index) >= len(sc.buffers) {
		sc.drv.mu.Unlock()
		return nil, fmt.Errorf("IDXGISwapChain::GetBuffer(%d): %w", index, ErrInvalidCall)
	}
	tex := sc.buffers[index]
	tex.refs++
	sc.drv.mu.Unlock()
	return newResource(sc.q.dev, tex, false), nil
}

func (sc *SwapChain) ResizeBuffers(count, width, height uint32, format gputypes.TextureFormat, flags driver.SwapChainFlags) error {
	if sc.drv.fails(FailResizeBuffers) {
		return fmt.Errorf("IDXGISwapChain::ResizeBuffers: %w", ErrInjected)
	}
	sc.drv.mu.Lock()
	defer sc.drv.mu.Unlock()
	for i, tex := range sc.buffers {
		if tex.refs > 0 {
			return fmt.Errorf("IDXGISwapChain::ResizeBuffers: buffer %d still referenced: %w", i, ErrInvalidCall)
		}
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("IDXGISwapChain::ResizeBuffers: %dx%d: %w", width, height, ErrInvalidCall)
	}
	if sc.q.pending.Load() > 0 {
		sc.drv.violate("swap chain resized with GPU work in flight")
	}
	for _, tex := range sc.buffers {
		tex.destroyed = true
	}
	if count != 0 {
		sc.desc.BufferCount = count
	}
	sc.desc.Width, sc.desc.Height = width, height
	if format != 0 {
		sc.desc.Format = format
	}
	sc.desc.Flags = flags
	sc.allocate()
	return nil
}

// Present queues the flip of the current buffer on the GPU timeline.
func (sc *SwapChain) Present(_, _ uint32) error {
	if sc.drv.fails(FailPresent) {
		return fmt.Errorf("IDXGISwapChain::Present: %w", ErrInjected)
	}
	ok := sc.q.enqueue(item{exec: func() {
		sc.drv.mu.Lock()
		defer sc.drv.mu.Unlock()
		tex := sc.buffers[sc.current]
		if tex.state != driver.ResourceStatePresent {
			sc.drv.violate("%s presented in state %s", tex.name, tex.state)
		}
		sc.current = (sc.current + 1) % len(sc.buffers)
		sc.q.dev.presents++
	}})
	if !ok {
		return fmt.Errorf("IDXGISwapChain::Present: %w", ErrInvalidCall)
	}
	return nil
}

func (sc *SwapChain) Release() {
	if !sc.drop() {
		return
	}
	sc.q.dev.disown()
	sc.drv.mu.Lock()
	defer sc.drv.mu.Unlock()
	for i, tex := range sc.buffers {
		if tex.refs > 0 {
			sc.drv.violate("swap chain released while buffer %d is referenced", i)
		}
		tex.destroyed = true
	}
}
