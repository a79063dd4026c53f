package emulated

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/syren/driver"
)

// queueDepth bounds the work a queue accepts before submission blocks.
const queueDepth = 64

// command executes on the GPU timeline with drv.mu held.
type command func(d *Device)

// item is one unit of GPU work. retire runs after the item stops counting
// as pending, so fence waiters never observe their own signal in flight.
type item struct {
	exec   func()
	retire func()
}

// queue plays the GPU timeline on its own goroutine.
type queue struct {
	releaser
	dev     *Device
	kind    driver.CommandListType
	work    chan item
	pending atomic.Int64
	latency time.Duration
}

func newQueue(d *Device, kind driver.CommandListType) *queue {
	q := &queue{
		dev:     d,
		kind:    kind,
		work:    make(chan item, queueDepth),
		latency: d.drv.cfg.Latency,
	}
	q.track(d.drv, "command queue")
	d.adopt()
	go q.run()
	return q
}

func (q *queue) run() {
	for it := range q.work {
		if it.exec != nil {
			it.exec()
		}
		q.pending.Add(-1)
		if it.retire != nil {
			it.retire()
		}
	}
}

// enqueue schedules it on the GPU timeline.
func (q *queue) enqueue(it item) bool {
	if !q.alive() {
		q.drv.violatef("work submitted to a released queue")
		return false
	}
	q.pending.Add(1)
	q.work <- it
	return true
}

func (q *queue) ExecuteCommandLists(lists ...driver.CommandList) {
	for _, cl := range lists {
		l, ok := cl.(*commandList)
		if !ok || !l.alive() {
			q.drv.violatef("released or foreign command list executed")
			continue
		}
		if l.recording {
			q.drv.violatef("command list executed while still recording")
			continue
		}
		if l.kind() != q.kind {
			q.drv.violatef("command list of type %d executed on queue of type %d", l.kind(), q.kind)
			continue
		}
		cmds := append([]command(nil), l.cmds...)
		alloc := l.alloc
		alloc.inFlight.Add(1)
		ok = q.enqueue(item{exec: func() {
			if q.latency > 0 {
				time.Sleep(q.latency)
			}
			q.drv.mu.Lock()
			for _, c := range cmds {
				c(q.dev)
			}
			q.drv.mu.Unlock()
			alloc.inFlight.Add(-1)
		}})
		if !ok {
			alloc.inFlight.Add(-1)
		}
	}
}

func (q *queue) Signal(f driver.Fence, value uint64) error {
	if q.drv.fails(FailSignal) {
		return fmt.Errorf("Signal: %w", ErrInjected)
	}
	fe, ok := f.(*fence)
	if !ok || !fe.alive() {
		return fmt.Errorf("Signal: %w", ErrInvalidCall)
	}
	if !q.enqueue(item{retire: func() { fe.signal(value) }}) {
		return fmt.Errorf("Signal: released queue: %w", ErrInvalidCall)
	}
	return nil
}

// Release stops the timeline goroutine once the queued work has retired.
func (q *queue) Release() {
	if !q.drop() {
		return
	}
	q.dev.disown()
	close(q.work)
}

type allocator struct {
	releaser
	dev      *Device
	kind     driver.CommandListType
	inFlight atomic.Int64
}

func (a *allocator) Reset() error {
	if n := a.inFlight.Load(); n > 0 {
		a.drv.violatef("command allocator reset with %d lists in flight", n)
		return fmt.Errorf("ID3D12CommandAllocator::Reset: %w", ErrInvalidCall)
	}
	return nil
}

func (a *allocator) Release() {
	if !a.drop() {
		return
	}
	a.dev.disown()
	if a.inFlight.Load() > 0 {
		a.drv.violatef("command allocator released with work in flight")
	}
}

type commandList struct {
	releaser
	dev       *Device
	alloc     *allocator
	recording bool
	cmds      []command
}

func (l *commandList) kind() driver.CommandListType { return l.alloc.kind }

func (l *commandList) Reset(alloc driver.CommandAllocator) error {
	al, ok := alloc.(*allocator)
	if !ok || !al.alive() {
		return fmt.Errorf("ID3D12GraphicsCommandList::Reset: %w", ErrInvalidCall)
	}
	if l.recording {
		return fmt.Errorf("ID3D12GraphicsCommandList::Reset: list is not closed: %w", ErrInvalidCall)
	}
	l.alloc = al
	l.cmds = l.cmds[:0]
	l.recording = true
	return nil
}

func (l *commandList) Close() error {
	if !l.recording {
		return fmt.Errorf("ID3D12GraphicsCommandList::Close: list is already closed: %w", ErrInvalidCall)
	}
	l.recording = false
	return nil
}

// record appends c, or flags a violation when the list is closed.
func (l *commandList) record(name string, c command) {
	if !l.recording {
		l.drv.violatef("%s recorded into a closed command list", name)
		return
	}
	l.cmds = append(l.cmds, c)
}

func (l *commandList) ResourceBarrier(barriers ...driver.ResourceBarrier) {
	for _, b := range barriers {
		res, ok := b.Resource.(*resource)
		if !ok || !res.alive() {
			l.drv.violatef("barrier on a released resource")
			continue
		}
		tex, before, after := res.tex, b.Before, b.After
		l.record("ResourceBarrier", func(d *Device) {
			if tex.destroyed {
				d.violateLocked("barrier on destroyed %s", tex.name)
				return
			}
			if tex.state != before {
				d.violateLocked("barrier on %s expects %s, resource is %s", tex.name, before, tex.state)
			}
			tex.state = after
		})
	}
}

func (l *commandList) RSSetViewports(viewports ...driver.Viewport) {
	if len(viewports) == 0 {
		return
	}
	vp := viewports[0]
	l.record("RSSetViewports", func(d *Device) { d.viewport = vp })
}

func (l *commandList) RSSetScissorRects(rects ...driver.Rect) {
	if len(rects) == 0 {
		return
	}
	r := rects[0]
	l.record("RSSetScissorRects", func(d *Device) { d.scissor = r })
}

func (l *commandList) ClearRenderTargetView(handle driver.CPUDescriptorHandle, color [4]float32) {
	l.record("ClearRenderTargetView", func(d *Device) {
		tex, ok := d.boundView(handle, driver.DescriptorHeapRTV)
		if !ok {
			return
		}
		if tex.state != driver.ResourceStateRenderTarget {
			d.violateLocked("render target %s cleared in state %s", tex.name, tex.state)
		}
		d.clears++
		d.lastClear = color
	})
}

func (l *commandList) ClearDepthStencilView(handle driver.CPUDescriptorHandle, _ driver.ClearFlags, _ float32, _ uint8) {
	l.record("ClearDepthStencilView", func(d *Device) {
		tex, ok := d.boundView(handle, driver.DescriptorHeapDSV)
		if !ok {
			return
		}
		if tex.state != driver.ResourceStateDepthWrite {
			d.violateLocked("depth buffer %s cleared in state %s", tex.name, tex.state)
		}
	})
}

func (l *commandList) OMSetRenderTargets(rtv driver.CPUDescriptorHandle, dsv *driver.CPUDescriptorHandle) {
	l.record("OMSetRenderTargets", func(d *Device) {
		d.boundView(rtv, driver.DescriptorHeapRTV)
		if dsv != nil {
			d.boundView(*dsv, driver.DescriptorHeapDSV)
		}
	})
}

func (l *commandList) Release() {
	if l.drop() {
		l.dev.disown()
	}
}

// boundView resolves a descriptor at execution time. Callers hold drv.mu.
func (d *Device) boundView(handle driver.CPUDescriptorHandle, kind driver.DescriptorHeapType) (*texture, bool) {
	v, ok := d.views[handle.Ptr]
	switch {
	case !ok || v.kind != kind:
		d.violateLocked("no view of heap type %d at %#x", kind, handle.Ptr)
		return nil, false
	case !v.heap.alive():
		d.violateLocked("view at %#x lives in a released heap", handle.Ptr)
		return nil, false
	case v.tex.destroyed:
		d.violateLocked("view at %#x references destroyed %s", handle.Ptr, v.tex.name)
		return nil, false
	}
	return v.tex, true
}
