package directx

import (
	"context"
	"image/color"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/colornames"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver"
)

// clearColor is the background every frame starts from.
var clearColor = colorOf(colornames.Lightsteelblue)

// colorOf converts an 8-bit colour to normalized floats.
func colorOf(c color.RGBA) gputypes.Color {
	return gputypes.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// rgba returns c as the four floats a render target clear takes.
func rgba(c gputypes.Color) [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}

// Render records one frame that clears the current back buffer and the
// depth buffer, presents it, and waits for the GPU to retire it. Only one
// frame is ever in flight, which is what makes resetting the single
// allocator at the top of the next frame legal.
//
// The buffer index advances once the frame is presented. A failure of the
// closing flush is reported, but the index still names the next buffer and
// the state is left as it was.
func (b *Backend) Render(ctx context.Context) backend.Result {
	if !b.usable() {
		return b.invalidState("render")
	}
	if b.device == nil || b.swapChain == nil || b.allocator == nil {
		return backend.Fail(backend.ErrNotInitialized,
			"Cannot render before the device, swap chain and allocator exist.", nil)
	}
	if !b.surfaceValid {
		return backend.Fail(backend.ErrInvalidState,
			"Cannot render until the surface has been resized successfully.", nil)
	}

	if err := b.allocator.Reset(); err != nil {
		return backend.Fail(backend.ErrFrame, "Failed to reset the command list allocator.", err)
	}
	if err := b.resetList(); err != nil {
		return backend.Fail(backend.ErrFrame, "Failed to reset the command list.", err)
	}
	defer b.abandonList()

	back := b.buffers[b.current]
	rtv := b.rtvHeap.CPUDescriptorHandleForHeapStart().Offset(b.current, b.rtvSize)
	dsv := b.dsvHeap.CPUDescriptorHandleForHeapStart()

	b.list.ResourceBarrier(driver.Transition(back, driver.ResourceStatePresent, driver.ResourceStateRenderTarget))
	b.list.RSSetViewports(b.viewport)
	b.list.RSSetScissorRects(b.scissor)
	b.list.ClearRenderTargetView(rtv, rgba(clearColor))
	b.list.ClearDepthStencilView(dsv, driver.ClearDepth|driver.ClearStencil, 1, 0)
	b.list.OMSetRenderTargets(rtv, &dsv)
	b.list.ResourceBarrier(driver.Transition(back, driver.ResourceStateRenderTarget, driver.ResourceStatePresent))

	if r := b.submit(); !r.OK() {
		return r
	}

	if err := b.swapChain.Present(0, 0); err != nil {
		// The frame is already queued; drain it so the allocator stays
		// resettable.
		if r := b.Flush(ctx); !r.OK() {
			syren.Logger().Warn("directx: flush after failed present", "err", r.Err)
		}
		return backend.Fail(backend.ErrFrame, "Failed to present the swap chain.", err)
	}
	b.current = (b.current + 1) % bufferCount

	if r := b.Flush(ctx); !r.OK() {
		return r
	}

	b.state = StateRendering
	syren.Logger().Debug("directx: frame", "buffer", b.current, "fence", b.fenceValue)
	return backend.Success("Successfully rendered frame.")
}
