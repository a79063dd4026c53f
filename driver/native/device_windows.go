//go:build windows && !(js && wasm)

package native

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/dx12/d3d12"
	"golang.org/x/sys/windows"

	"github.com/gogpu/syren/driver"
)

type device struct {
	raw *d3d12.ID3D12Device
}

func (d *device) CreateFence(initial uint64) (driver.Fence, error) {
	f, err := d.raw.CreateFence(initial, d3d12.D3D12_FENCE_FLAG_NONE)
	if err != nil {
		return nil, fmt.Errorf("CreateFence: %w", err)
	}
	return &fence{raw: f}, nil
}

func (d *device) CreateEvent() (driver.Event, error) {
	h, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateEvent: %w", err)
	}
	return &event{handle: h}, nil
}

func (d *device) CreateCommandQueue(kind driver.CommandListType) (driver.CommandQueue, error) {
	q, err := d.raw.CreateCommandQueue(&d3d12.D3D12_COMMAND_QUEUE_DESC{
		Type:     d3d12.D3D12_COMMAND_LIST_TYPE(kind),
		Priority: int32(d3d12.D3D12_COMMAND_QUEUE_PRIORITY_NORMAL),
		Flags:    d3d12.D3D12_COMMAND_QUEUE_FLAG_NONE,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateCommandQueue: %w", err)
	}
	return &queue{raw: q}, nil
}

func (d *device) CreateCommandAllocator(kind driver.CommandListType) (driver.CommandAllocator, error) {
	a, err := d.raw.CreateCommandAllocator(d3d12.D3D12_COMMAND_LIST_TYPE(kind))
	if err != nil {
		return nil, fmt.Errorf("CreateCommandAllocator: %w", err)
	}
	return &allocator{raw: a}, nil
}

func (d *device) CreateCommandList(kind driver.CommandListType, alloc driver.CommandAllocator) (driver.CommandList, error) {
	a, ok := alloc.(*allocator)
	if !ok {
		return nil, errForeign
	}
	l, err := d.raw.CreateCommandList(0, d3d12.D3D12_COMMAND_LIST_TYPE(kind), a.raw, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateCommandList: %w", err)
	}
	return &commandList{raw: l}, nil
}

func (d *device) CreateDescriptorHeap(desc driver.DescriptorHeapDesc) (driver.DescriptorHeap, error) {
	flags := d3d12.D3D12_DESCRIPTOR_HEAP_FLAG_NONE
	if desc.ShaderVisible {
		flags = d3d12.D3D12_DESCRIPTOR_HEAP_FLAG_SHADER_VISIBLE
	}
	h, err := d.raw.CreateDescriptorHeap(&d3d12.D3D12_DESCRIPTOR_HEAP_DESC{
		Type:           d3d12.D3D12_DESCRIPTOR_HEAP_TYPE(desc.Type),
		NumDescriptors: desc.NumDescriptors,
		Flags:          flags,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateDescriptorHeap: %w", err)
	}
	return &descriptorHeap{raw: h}, nil
}

func (d *device) DescriptorHandleIncrementSize(kind driver.DescriptorHeapType) uint32 {
	return d.raw.GetDescriptorHandleIncrementSize(d3d12.D3D12_DESCRIPTOR_HEAP_TYPE(kind))
}

func (d *device) CreateRenderTargetView(r driver.Resource, handle driver.CPUDescriptorHandle) {
	d.raw.CreateRenderTargetView(rawResource(r), nil, cpuHandle(handle))
}

func (d *device) CreateDepthStencilView(r driver.Resource, format gputypes.TextureFormat, handle driver.CPUDescriptorHandle) {
	f, _ := viewFormat(format)
	desc := d3d12.D3D12_DEPTH_STENCIL_VIEW_DESC{
		Format:        d3d12.DXGI_FORMAT(f),
		ViewDimension: d3d12.D3D12_DSV_DIMENSION_TEXTURE2D,
		Flags:         d3d12.D3D12_DSV_FLAG_NONE,
	}
	desc.SetTexture2D(0)
	d.raw.CreateDepthStencilView(rawResource(r), &desc, cpuHandle(handle))
}

func (d *device) CreateCommittedResource(desc *driver.TextureDesc, initial driver.ResourceState, clear *driver.ClearValue) (driver.Resource, error) {
	format, ok := resourceFormat(desc.Format)
	if !ok {
		return nil, fmt.Errorf("native: unsupported texture format %v", desc.Format)
	}
	heap := d3d12.D3D12_HEAP_PROPERTIES{
		Type:                 d3d12.D3D12_HEAP_TYPE_DEFAULT,
		CPUPageProperty:      d3d12.D3D12_CPU_PAGE_PROPERTY_UNKNOWN,
		MemoryPoolPreference: d3d12.D3D12_MEMORY_POOL_UNKNOWN,
		CreationNodeMask:     1,
		VisibleNodeMask:      1,
	}
	rd := d3d12.D3D12_RESOURCE_DESC{
		Dimension:        d3d12.D3D12_RESOURCE_DIMENSION_TEXTURE2D,
		Width:            desc.Width,
		Height:           desc.Height,
		DepthOrArraySize: max(desc.ArraySize, 1),
		MipLevels:        max(desc.MipLevels, 1),
		Format:           d3d12.DXGI_FORMAT(format),
		SampleDesc:       d3d12.DXGI_SAMPLE_DESC{Count: max(desc.SampleCount, 1), Quality: desc.Quality},
		Layout:           d3d12.D3D12_TEXTURE_LAYOUT_UNKNOWN,
		Flags:            d3d12.D3D12_RESOURCE_FLAGS(desc.Flags),
	}

	var cv *d3d12.D3D12_CLEAR_VALUE
	if clear != nil {
		f, _ := viewFormat(clear.Format)
		cv = &d3d12.D3D12_CLEAR_VALUE{Format: d3d12.DXGI_FORMAT(f)}
		if clear.Format.IsDepthStencil() {
			cv.SetDepthStencil(clear.Depth, clear.Stencil)
		} else {
			cv.SetColor(clear.Color)
		}
	}

	res, err := d.raw.CreateCommittedResource(&heap, d3d12.D3D12_HEAP_FLAG_NONE, &rd,
		d3d12.D3D12_RESOURCE_STATES(initial), cv)
	if err != nil {
		return nil, fmt.Errorf("CreateCommittedResource: %w", err)
	}
	return &resource{raw: res}, nil
}

// featureDataMultisampleQualityLevels is D3D12_FEATURE_DATA_MULTISAMPLE_QUALITY_LEVELS.
type featureDataMultisampleQualityLevels struct {
	Format           d3d12.DXGI_FORMAT
	SampleCount      uint32
	Flags            uint32
	NumQualityLevels uint32
}

func (d *device) MultisampleQualityLevels(format gputypes.TextureFormat, samples uint32) (uint32, error) {
	f, ok := viewFormat(format)
	if !ok {
		return 0, fmt.Errorf("native: unsupported format %v", format)
	}
	data := featureDataMultisampleQualityLevels{
		Format:      d3d12.DXGI_FORMAT(f),
		SampleCount: samples,
	}
	err := d.raw.CheckFeatureSupport(d3d12.D3D12_FEATURE_MULTISAMPLE_QUALITY_LEVELS,
		unsafe.Pointer(&data), uint32(unsafe.Sizeof(data)))
	if err != nil {
		return 0, fmt.Errorf("CheckFeatureSupport: %w", err)
	}
	return data.NumQualityLevels, nil
}

func (d *device) Release() { d.raw.Release() }

type fence struct {
	raw *d3d12.ID3D12Fence
}

func (f *fence) CompletedValue() uint64 { return f.raw.GetCompletedValue() }

func (f *fence) SetEventOnCompletion(value uint64, ev driver.Event) error {
	e, ok := ev.(*event)
	if !ok {
		return errForeign
	}
	if err := f.raw.SetEventOnCompletion(value, uintptr(e.handle)); err != nil {
		return fmt.Errorf("SetEventOnCompletion: %w", err)
	}
	return nil
}

func (f *fence) Release() { f.raw.Release() }

type event struct {
	handle windows.Handle
}

func (e *event) Wait() error {
	ret, err := windows.WaitForSingleObject(e.handle, windows.INFINITE)
	if err != nil {
		return fmt.Errorf("WaitForSingleObject: %w", err)
	}
	if ret != windows.WAIT_OBJECT_0 {
		return fmt.Errorf("WaitForSingleObject: unexpected result 0x%x", ret)
	}
	return nil
}

func (e *event) Close() error { return windows.CloseHandle(e.handle) }

type queue struct {
	raw *d3d12.ID3D12CommandQueue
}

func (q *queue) ExecuteCommandLists(lists ...driver.CommandList) {
	raw := make([]*d3d12.ID3D12GraphicsCommandList, 0, len(lists))
	for _, l := range lists {
		if cl, ok := l.(*commandList); ok {
			raw = append(raw, cl.raw)
		}
	}
	if len(raw) == 0 {
		return
	}
	q.raw.ExecuteCommandLists(uint32(len(raw)), &raw[0])
}

func (q *queue) Signal(f driver.Fence, value uint64) error {
	fn, ok := f.(*fence)
	if !ok {
		return errForeign
	}
	if err := q.raw.Signal(fn.raw, value); err != nil {
		return fmt.Errorf("Signal: %w", err)
	}
	return nil
}

func (q *queue) Release() { q.raw.Release() }

type allocator struct {
	raw *d3d12.ID3D12CommandAllocator
}

func (a *allocator) Reset() error { return a.raw.Reset() }

func (a *allocator) Release() { a.raw.Release() }

type commandList struct {
	raw *d3d12.ID3D12GraphicsCommandList
}

func (l *commandList) Reset(alloc driver.CommandAllocator) error {
	a, ok := alloc.(*allocator)
	if !ok {
		return errForeign
	}
	return l.raw.Reset(a.raw, nil)
}

func (l *commandList) Close() error { return l.raw.Close() }

func (l *commandList) ResourceBarrier(barriers ...driver.ResourceBarrier) {
	if len(barriers) == 0 {
		return
	}
	raw := make([]d3d12.D3D12_RESOURCE_BARRIER, len(barriers))
	for i, b := range barriers {
		raw[i] = d3d12.NewTransitionBarrier(rawResource(b.Resource),
			d3d12.D3D12_RESOURCE_STATES(b.Before), d3d12.D3D12_RESOURCE_STATES(b.After),
			d3d12.D3D12_RESOURCE_BARRIER_ALL_SUBRESOURCES)
	}
	l.raw.ResourceBarrier(uint32(len(raw)), &raw[0])
}

func (l *commandList) RSSetViewports(viewports ...driver.Viewport) {
	if len(viewports) == 0 {
		return
	}
	raw := make([]d3d12.D3D12_VIEWPORT, len(viewports))
	for i, v := range viewports {
		raw[i] = d3d12.D3D12_VIEWPORT(v)
	}
	l.raw.RSSetViewports(uint32(len(raw)), &raw[0])
}

func (l *commandList) RSSetScissorRects(rects ...driver.Rect) {
	if len(rects) == 0 {
		return
	}
	raw := make([]d3d12.D3D12_RECT, len(rects))
	for i, r := range rects {
		raw[i] = d3d12.D3D12_RECT(r)
	}
	l.raw.RSSetScissorRects(uint32(len(raw)), &raw[0])
}

func (l *commandList) ClearRenderTargetView(handle driver.CPUDescriptorHandle, color [4]float32) {
	l.raw.ClearRenderTargetView(cpuHandle(handle), &color, 0, nil)
}

func (l *commandList) ClearDepthStencilView(handle driver.CPUDescriptorHandle, flags driver.ClearFlags, depth float32, stencil uint8) {
	l.raw.ClearDepthStencilView(cpuHandle(handle), d3d12.D3D12_CLEAR_FLAGS(flags), depth, stencil, 0, nil)
}

func (l *commandList) OMSetRenderTargets(rtv driver.CPUDescriptorHandle, dsv *driver.CPUDescriptorHandle) {
	rt := cpuHandle(rtv)
	var ds *d3d12.D3D12_CPU_DESCRIPTOR_HANDLE
	if dsv != nil {
		h := cpuHandle(*dsv)
		ds = &h
	}
	l.raw.OMSetRenderTargets(1, &rt, 0, ds)
}

func (l *commandList) Release() { l.raw.Release() }

type descriptorHeap struct {
	raw *d3d12.ID3D12DescriptorHeap
}

func (h *descriptorHeap) CPUDescriptorHandleForHeapStart() driver.CPUDescriptorHandle {
	return driver.CPUDescriptorHandle{Ptr: h.raw.GetCPUDescriptorHandleForHeapStart().Ptr}
}

func (h *descriptorHeap) Release() { h.raw.Release() }

type resource struct {
	raw *d3d12.ID3D12Resource
}

func (r *resource) Release() { r.raw.Release() }

func rawResource(r driver.Resource) *d3d12.ID3D12Resource {
	if res, ok := r.(*resource); ok {
		return res.raw
	}
	return nil
}

func cpuHandle(h driver.CPUDescriptorHandle) d3d12.D3D12_CPU_DESCRIPTOR_HANDLE {
	return d3d12.D3D12_CPU_DESCRIPTOR_HANDLE{Ptr: h.Ptr}
}
