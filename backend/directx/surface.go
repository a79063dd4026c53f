package directx

import (
	"context"
	"fmt"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver"
)

// initialiseSwapChain creates the flip-discard swap chain at the current
// client size. refreshNumerator/refreshDenominator is the requested refresh
// rate.
func (b *Backend) initialiseSwapChain(refreshNumerator, refreshDenominator uint32) backend.Result {
	desc := &driver.SwapChainDesc{
		Width:       uint32(b.width),
		Height:      uint32(b.height),
		Format:      b.opts.bufferFormat,
		RefreshRate: driver.Rational{Numerator: refreshNumerator, Denominator: refreshDenominator},
		SampleCount: 1,
		BufferCount: bufferCount,
		SwapEffect:  driver.SwapEffectFlipDiscard,
		Flags:       driver.SwapChainFlagAllowModeSwitch,
		Windowed:    true,
	}
	swapChain, err := b.factory.CreateSwapChain(b.queue, b.target.Window, desc)
	if err != nil {
		refresh := uint32(0)
		if refreshDenominator != 0 {
			refresh = refreshNumerator / refreshDenominator
		}
		msg := fmt.Sprintf("Failed to create the swap chain.\nResolution: %dx%d\nRefresh Rate: %d",
			desc.Width, desc.Height, refresh)
		return backend.Fail(backend.ErrCreation, msg, err)
	}
	b.swapChain = swapChain
	return backend.Success("Successfully created the swap chain.")
}

// initialiseHeaps creates the render target heap, one slot per swap chain
// buffer, and the single-slot depth stencil heap.
func (b *Backend) initialiseHeaps() backend.Result {
	rtvHeap, err := b.device.CreateDescriptorHeap(driver.DescriptorHeapDesc{
		Type:           driver.DescriptorHeapRTV,
		NumDescriptors: bufferCount,
	})
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create the render target view heap.", err)
	}
	b.rtvHeap = rtvHeap

	dsvHeap, err := b.device.CreateDescriptorHeap(driver.DescriptorHeapDesc{
		Type:           driver.DescriptorHeapDSV,
		NumDescriptors: 1,
	})
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create the depth stencil view heap.", err)
	}
	b.dsvHeap = dsvHeap
	return backend.Success("Successfully created the descriptor heaps.")
}

// OnResize recreates the swap chain buffers, their views and the depth
// buffer at the new client size. Sizes below one pixel are clamped to one,
// so a minimised window keeps a valid surface.
//
// On return the backend is back in the state it was in before the call,
// whether or not the resize succeeded. A resize that fails after the old
// buffers were released leaves no surface: Render fails until a later
// resize succeeds.
func (b *Backend) OnResize(ctx context.Context, width, height int) backend.Result {
	if !b.usable() {
		return b.invalidState("resize")
	}
	prev := b.state
	b.state = StateResizing
	defer func() { b.state = prev }()

	return b.resize(ctx, width, height)
}

// resize runs the resize sequence. Both flushes are required: the first
// keeps the GPU off the buffers about to be destroyed, the second retires
// the depth transition before the next frame binds the depth buffer.
func (b *Backend) resize(ctx context.Context, width, height int) backend.Result {
	if b.device == nil || b.swapChain == nil || b.allocator == nil {
		return backend.Fail(backend.ErrNotInitialized,
			"Cannot resize before the device, swap chain and allocator exist.", nil)
	}
	width, height = max(width, 1), max(height, 1)
	log := syren.Logger()

	if r := b.Flush(ctx); !r.OK() {
		return r
	}

	if err := b.resetList(); err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to reset the command list.", err)
	}
	defer b.abandonList()

	b.releaseSurface()

	if err := b.swapChain.ResizeBuffers(bufferCount, uint32(width), uint32(height),
		b.opts.bufferFormat, driver.SwapChainFlagAllowModeSwitch); err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to resize the swap chain buffers.", err)
	}
	b.current = 0

	rtv := b.rtvHeap.CPUDescriptorHandleForHeapStart()
	for i := range b.buffers {
		buf, err := b.swapChain.Buffer(uint32(i))
		if err != nil {
			return backend.Fail(backend.ErrCreation,
				fmt.Sprintf("Failed to get swap chain buffer %d.", i), err)
		}
		b.buffers[i] = buf
		b.device.CreateRenderTargetView(buf, rtv.Offset(i, b.rtvSize))
	}

	depth, err := b.device.CreateCommittedResource(&driver.TextureDesc{
		Width:       uint64(width),
		Height:      uint32(height),
		ArraySize:   1,
		MipLevels:   1,
		Format:      b.opts.depthFormat,
		SampleCount: 1,
		Flags:       driver.ResourceFlagAllowDepthStencil,
	}, driver.ResourceStateCommon, &driver.ClearValue{
		Format:  b.opts.depthFormat,
		Depth:   1,
		Stencil: 0,
	})
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create the depth stencil buffer.", err)
	}
	b.depth = depth
	b.device.CreateDepthStencilView(depth, b.opts.depthFormat, b.dsvHeap.CPUDescriptorHandleForHeapStart())

	b.list.ResourceBarrier(driver.Transition(depth, driver.ResourceStateCommon, driver.ResourceStateDepthWrite))
	if r := b.submit(); !r.OK() {
		return r
	}

	if r := b.Flush(ctx); !r.OK() {
		return r
	}

	b.width, b.height = width, height
	b.viewport = driver.Viewport{
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	b.scissor = driver.Rect{Right: int32(width), Bottom: int32(height)}
	b.surfaceValid = true

	log.Debug("directx: resized", "width", width, "height", height, "fence", b.fenceValue)
	return backend.Success(fmt.Sprintf("Resized the surface to %dx%d.", width, height))
}

// releaseSurface drops the swap chain buffer references and the depth
// buffer. The GPU must be idle.
func (b *Backend) releaseSurface() {
	b.surfaceValid = false
	for i := range b.buffers {
		release(&b.buffers[i])
	}
	release(&b.depth)
}
