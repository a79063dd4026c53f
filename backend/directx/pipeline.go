package directx

import (
	"context"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver"
)

// initialiseCommandObjects creates the direct queue, the allocator and the
// command list. The list is created recording and closed straight away so
// that every later use starts with Reset.
func (b *Backend) initialiseCommandObjects() backend.Result {
	queue, err := b.device.CreateCommandQueue(driver.CommandListDirect)
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create the command queue.", err)
	}
	b.queue = queue

	allocator, err := b.device.CreateCommandAllocator(driver.CommandListDirect)
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create the command allocator.", err)
	}
	b.allocator = allocator

	list, err := b.device.CreateCommandList(driver.CommandListDirect, allocator)
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create the command list.", err)
	}
	b.list = list

	if err := list.Close(); err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to close the command list.", err)
	}
	return backend.Success("Successfully created the command objects.")
}

// Flush blocks until the GPU has retired every command submitted so far.
//
// The wait has no timeout and cannot be abandoned: a cancelled ctx is only
// reported once the queue has drained.
func (b *Backend) Flush(ctx context.Context) backend.Result {
	if b.queue == nil || b.fence == nil {
		return backend.Fail(backend.ErrNotInitialized, "The command queue has not been created.", nil)
	}

	if !b.submitted && b.fence.CompletedValue() >= b.fenceValue {
		return backend.Success("The command queue is already idle.")
	}

	b.fenceValue++
	target := b.fenceValue
	if err := b.queue.Signal(b.fence, target); err != nil {
		return backend.Fail(backend.ErrSync, "Failed to signal the command queue.", err)
	}

	if b.fence.CompletedValue() < target {
		if r := b.waitForFence(target); !r.OK() {
			return r
		}
	}
	b.submitted = false
	syren.Logger().Debug("directx: flushed", "fence", target)

	if err := ctx.Err(); err != nil {
		return backend.Fail(backend.ErrSync, "The flush outlived its context.", err)
	}
	return backend.Success("Successfully flushed the command queue.")
}

// waitForFence parks the calling goroutine until the fence reaches value.
func (b *Backend) waitForFence(value uint64) backend.Result {
	event, err := b.device.CreateEvent()
	if err != nil {
		return backend.Fail(backend.ErrSync, "Failed to create the fence event.", err)
	}
	defer func() {
		if err := event.Close(); err != nil {
			syren.Logger().Warn("directx: closing fence event", "err", err)
		}
	}()

	if err := b.fence.SetEventOnCompletion(value, event); err != nil {
		return backend.Fail(backend.ErrSync, "Failed to fire event on fence completion.", err)
	}
	if err := event.Wait(); err != nil {
		return backend.Fail(backend.ErrSync, "Failed to wait for the fence event.", err)
	}
	return backend.Success("Fence reached.")
}

// resetList reopens the command list on the allocator for recording.
func (b *Backend) resetList() error {
	if err := b.list.Reset(b.allocator); err != nil {
		return err
	}
	b.recording = true
	return nil
}

// submit closes the command list and hands it to the queue.
func (b *Backend) submit() backend.Result {
	b.recording = false
	if err := b.list.Close(); err != nil {
		return backend.Fail(backend.ErrFrame, "Failed to close the command list.", err)
	}
	b.queue.ExecuteCommandLists(b.list)
	b.submitted = true
	return backend.Success("Submitted the command list.")
}

// abandonList closes a list left recording by a failed sequence, so the
// next Reset is legal. Nothing recorded into it is submitted.
func (b *Backend) abandonList() {
	if !b.recording {
		return
	}
	b.recording = false
	if err := b.list.Close(); err != nil {
		syren.Logger().Warn("directx: closing abandoned command list", "err", err)
	}
}
