package emulated

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/syren/driver"
)

// Descriptor increment sizes reported by emulated devices.
const (
	rtvIncrement       = 32
	dsvIncrement       = 8
	cbvSrvUavIncrement = 32
	samplerIncrement   = 16
	heapSpan           = 0x10000
)

// texture is the GPU-side memory behind one or more resource references.
type texture struct {
	name      string
	desc      driver.TextureDesc
	state     driver.ResourceState
	refs      int
	destroyed bool
}

// view is a descriptor written into a heap slot.
type view struct {
	kind driver.DescriptorHeapType
	tex  *texture
	heap *descriptorHeap
}

// Device is an emulated logical device. Its accessors report the GPU-side
// state observed after the last retired command.
type Device struct {
	releaser
	name     string
	children atomic.Int64

	// Guarded by drv.mu.
	heaps     []*descriptorHeap
	queues    []*queue
	swapChain *SwapChain
	views     map[uintptr]view
	viewport  driver.Viewport
	scissor   driver.Rect
	clears    int
	lastClear [4]float32
	presents  int
}

func newDevice(drv *Driver, adapterName string) *Device {
	d := &Device{name: adapterName, views: make(map[uintptr]view)}
	d.track(drv, "device on "+adapterName)
	return d
}

// AdapterName returns the name of the adapter the device was created on.
func (d *Device) AdapterName() string { return d.name }

// SwapChain returns the last swap chain created on a queue of the device.
func (d *Device) SwapChain() *SwapChain {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return d.swapChain
}

// Views returns the number of usable views of kind: written into a live
// heap and referencing memory that still exists.
func (d *Device) Views(kind driver.DescriptorHeapType) int {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	n := 0
	for _, v := range d.views {
		if v.kind == kind && v.heap.alive() && !v.tex.destroyed {
			n++
		}
	}
	return n
}

// Clears returns the number of render target clears executed.
func (d *Device) Clears() int {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return d.clears
}

// LastClearColor returns the colour of the last executed render target clear.
func (d *Device) LastClearColor() [4]float32 {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return d.lastClear
}

// Presents returns the number of presents executed.
func (d *Device) Presents() int {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return d.presents
}

// Viewport returns the last viewport set by an executed command list.
func (d *Device) Viewport() driver.Viewport {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return d.viewport
}

// ScissorRect returns the last scissor rectangle set by an executed list.
func (d *Device) ScissorRect() driver.Rect {
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return d.scissor
}

// ResourceState returns the GPU-side state of r.
func (d *Device) ResourceState(r driver.Resource) driver.ResourceState {
	res, ok := r.(*resource)
	if !ok {
		return driver.ResourceStateCommon
	}
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	return res.tex.state
}

func (d *Device) adopt() { d.children.Add(1) }

func (d *Device) disown() { d.children.Add(-1) }

// inFlight reports whether any queue of the device has unretired work.
// Callers hold drv.mu.
func (d *Device) inFlight() bool {
	for _, q := range d.queues {
		if q.pending.Load() > 0 {
			return true
		}
	}
	return false
}

func (d *Device) CreateFence(initial uint64) (driver.Fence, error) {
	if d.drv.fails(FailFence) {
		return nil, fmt.Errorf("CreateFence: %w", ErrInjected)
	}
	f := &fence{dev: d}
	f.counter.Signal(initial)
	f.track(d.drv, "fence")
	d.adopt()
	return f, nil
}

func (d *Device) CreateEvent() (driver.Event, error) {
	if d.drv.fails(FailEvent) {
		return nil, fmt.Errorf("CreateEvent: %w", ErrInjected)
	}
	e := &event{done: make(chan struct{})}
	e.track(d.drv, "event")
	return e, nil
}

func (d *Device) CreateCommandQueue(kind driver.CommandListType) (driver.CommandQueue, error) {
	if d.drv.fails(FailCommandQueue) {
		return nil, fmt.Errorf("CreateCommandQueue: %w", ErrInjected)
	}
	q := newQueue(d, kind)
	d.drv.mu.Lock()
	d.queues = append(d.queues, q)
	d.drv.mu.Unlock()
	return q, nil
}

func (d *Device) CreateCommandAllocator(kind driver.CommandListType) (driver.CommandAllocator, error) {
	if d.drv.fails(FailCommandAllocator) {
		return nil, fmt.Errorf("CreateCommandAllocator: %w", ErrInjected)
	}
	a := &allocator{dev: d, kind: kind}
	a.track(d.drv, "command allocator")
	d.adopt()
	return a, nil
}

func (d *Device) CreateCommandList(kind driver.CommandListType, alloc driver.CommandAllocator) (driver.CommandList, error) {
	if d.drv.fails(FailCommandList) {
		return nil, fmt.Errorf("CreateCommandList: %w", ErrInjected)
	}
	al, ok := alloc.(*allocator)
	if !ok || !al.alive() || al.kind != kind {
		return nil, fmt.Errorf("CreateCommandList: %w", ErrInvalidCall)
	}
	l := &commandList{dev: d, alloc: al, recording: true}
	l.track(d.drv, "command list")
	d.adopt()
	return l, nil
}

func (d *Device) CreateDescriptorHeap(desc driver.DescriptorHeapDesc) (driver.DescriptorHeap, error) {
	if d.drv.fails(FailDescriptorHeap) {
		return nil, fmt.Errorf("CreateDescriptorHeap: %w", ErrInjected)
	}
	if desc.NumDescriptors == 0 {
		return nil, fmt.Errorf("CreateDescriptorHeap: empty heap: %w", ErrInvalidCall)
	}
	d.drv.mu.Lock()
	h := &descriptorHeap{dev: d, desc: desc, start: d.drv.nextHeap}
	d.drv.nextHeap += heapSpan
	d.heaps = append(d.heaps, h)
	d.drv.mu.Unlock()
	h.track(d.drv, "descriptor heap")
	d.adopt()
	return h, nil
}

func (d *Device) DescriptorHandleIncrementSize(kind driver.DescriptorHeapType) uint32 {
	switch kind {
	case driver.DescriptorHeapRTV:
		return rtvIncrement
	case driver.DescriptorHeapDSV:
		return dsvIncrement
	case driver.DescriptorHeapSampler:
		return samplerIncrement
	default:
		return cbvSrvUavIncrement
	}
}

func (d *Device) CreateRenderTargetView(r driver.Resource, handle driver.CPUDescriptorHandle) {
	d.writeView(driver.DescriptorHeapRTV, r, handle)
}

func (d *Device) CreateDepthStencilView(r driver.Resource, format gputypes.TextureFormat, handle driver.CPUDescriptorHandle) {
	if res, ok := r.(*resource); ok && res.tex.desc.Format != format {
		d.drv.violatef("depth stencil view format %s on %s resource", format, res.tex.desc.Format)
	}
	d.writeView(driver.DescriptorHeapDSV, r, handle)
}

// writeView stores a descriptor in the heap slot handle addresses.
func (d *Device) writeView(kind driver.DescriptorHeapType, r driver.Resource, handle driver.CPUDescriptorHandle) {
	res, ok := r.(*resource)
	if !ok || !res.alive() {
		d.drv.violatef("view created on a released resource")
		return
	}
	d.drv.mu.Lock()
	defer d.drv.mu.Unlock()
	heap := d.heapAt(handle)
	if heap == nil || !heap.alive() {
		d.violateLocked("descriptor handle %#x is outside every live heap", handle.Ptr)
		return
	}
	if heap.desc.Type != kind {
		d.violateLocked("view of heap type %d written into heap of type %d", kind, heap.desc.Type)
		return
	}
	d.views[handle.Ptr] = view{kind: kind, tex: res.tex, heap: heap}
}

// heapAt finds the heap containing handle. Callers hold drv.mu.
func (d *Device) heapAt(handle driver.CPUDescriptorHandle) *descriptorHeap {
	for _, h := range d.heaps {
		inc := uintptr(d.DescriptorHandleIncrementSize(h.desc.Type))
		end := h.start + uintptr(h.desc.NumDescriptors)*inc
		if handle.Ptr >= h.start && handle.Ptr < end && (handle.Ptr-h.start)%inc == 0 {
			return h
		}
	}
	return nil
}

func (d *Device) violateLocked(format string, args ...any) { d.drv.violate(format, args...) }

func (d *Device) CreateCommittedResource(desc *driver.TextureDesc, initial driver.ResourceState, clear *driver.ClearValue) (driver.Resource, error) {
	if d.drv.fails(FailCommittedResource) {
		return nil, fmt.Errorf("CreateCommittedResource: %w", ErrInjected)
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("CreateCommittedResource: %dx%d: %w", desc.Width, desc.Height, ErrInvalidCall)
	}
	if clear != nil && clear.Format != desc.Format {
		return nil, fmt.Errorf("CreateCommittedResource: clear format %s on %s resource: %w",
			clear.Format, desc.Format, ErrInvalidCall)
	}
	tex := &texture{name: "committed " + desc.Format.String(), desc: *desc, state: initial, refs: 1}
	return newResource(d, tex, true), nil
}

func (d *Device) MultisampleQualityLevels(_ gputypes.TextureFormat, samples uint32) (uint32, error) {
	switch samples {
	case 1:
		return 1, nil
	case 4:
		return d.drv.cfg.MSAAQualityLevels, nil
	default:
		return 0, nil
	}
}

func (d *Device) Release() {
	if !d.drop() {
		return
	}
	if n := d.children.Load(); n > 0 {
		d.drv.violatef("device released with %d live children", n)
	}
}

// fence advances on the GPU timeline only.
type fence struct {
	releaser
	dev     *Device
	counter noop.Fence

	mu      sync.Mutex
	waiters []waiter
}

type waiter struct {
	value uint64
	ev    *event
}

func (f *fence) CompletedValue() uint64 { return f.counter.GetValue() }

func (f *fence) SetEventOnCompletion(value uint64, e driver.Event) error {
	if f.drv.fails(FailSetEventOnCompletion) {
		return fmt.Errorf("SetEventOnCompletion: %w", ErrInjected)
	}
	ev, ok := e.(*event)
	if !ok || !ev.alive() {
		return fmt.Errorf("SetEventOnCompletion: %w", ErrInvalidCall)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counter.GetValue() >= value {
		ev.set()
		return nil
	}
	f.waiters = append(f.waiters, waiter{value: value, ev: ev})
	return nil
}

// signal runs on the GPU timeline.
func (f *fence) signal(value uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur := f.counter.GetValue(); value < cur {
		f.drv.violatef("fence moved backwards from %d to %d", cur, value)
	}
	f.counter.Signal(value)
	kept := f.waiters[:0]
	for _, w := range f.waiters {
		if w.value <= value {
			w.ev.set()
			continue
		}
		kept = append(kept, w)
	}
	f.waiters = kept
}

func (f *fence) Release() {
	if f.drop() {
		f.dev.disown()
	}
}

type event struct {
	releaser
	once sync.Once
	done chan struct{}
}

func (e *event) set() { e.once.Do(func() { close(e.done) }) }

func (e *event) Wait() error {
	if !e.alive() {
		return fmt.Errorf("WaitForSingleObject: closed handle: %w", ErrInvalidCall)
	}
	<-e.done
	return nil
}

func (e *event) Close() error {
	if !e.drop() {
		return fmt.Errorf("CloseHandle: %w", ErrInvalidCall)
	}
	return nil
}

type descriptorHeap struct {
	releaser
	dev   *Device
	desc  driver.DescriptorHeapDesc
	start uintptr
}

func (h *descriptorHeap) CPUDescriptorHandleForHeapStart() driver.CPUDescriptorHandle {
	return driver.CPUDescriptorHandle{Ptr: h.start}
}

func (h *descriptorHeap) Release() {
	if h.drop() {
		h.dev.disown()
	}
}

// resource is one reference to a texture.
type resource struct {
	releaser
	dev       *Device
	tex       *texture
	committed bool
}

func newResource(d *Device, tex *texture, committed bool) *resource {
	r := &resource{dev: d, tex: tex, committed: committed}
	r.track(d.drv, "resource "+tex.name)
	d.adopt()
	return r
}

func (r *resource) Release() {
	if !r.drop() {
		return
	}
	r.dev.disown()
	r.drv.mu.Lock()
	defer r.drv.mu.Unlock()
	if r.dev.inFlight() {
		r.drv.violate("%s released while GPU work is in flight", r.tex.name)
	}
	r.tex.refs--
	if r.committed && r.tex.refs == 0 {
		r.tex.destroyed = true
	}
}
