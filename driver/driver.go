// Package driver describes the Direct3D 12 object model the syren backend
// is written against.
//
// The interfaces mirror the COM objects of D3D12 and DXGI closely enough
// that the native implementation (driver/native) is a thin wrapper over
// gogpu/wgpu's hal/dx12 bindings, while the emulated implementation
// (driver/emulated) can simulate the GPU timeline in pure Go for tests and
// headless runs.
//
// Every object that owns a platform resource has a Release method. Callers
// release objects in the reverse order of their dependencies; the driver
// does not track ownership on their behalf.
package driver

import "github.com/gogpu/gputypes"

// Opener creates a driver factory. Backends hold an Opener rather than a
// Factory so that enumeration can open its own short-lived factory.
type Opener func() (Factory, error)

// Factory is the entry point of a driver, the equivalent of IDXGIFactory.
type Factory interface {
	// EnumAdapter returns the adapter at index, ordered from the highest to
	// the lowest estimated performance. It returns ErrNotFound past the end.
	EnumAdapter(index int) (Adapter, error)

	// WarpAdapter returns the software rasterizer adapter.
	WarpAdapter() (Adapter, error)

	// CreateDevice creates a logical device on adapter at the minimum level.
	CreateDevice(adapter Adapter, level FeatureLevel) (Device, error)

	// CreateSwapChain creates a swap chain presenting to window. The queue
	// is the one that will execute the commands rendering into its buffers.
	CreateSwapChain(queue CommandQueue, window uintptr, desc *SwapChainDesc) (SwapChain, error)

	Release()
}

// Adapter is a physical or virtual GPU.
type Adapter interface {
	Desc() (AdapterDesc, error)

	// EnumOutput returns the display attached at index, or ErrNotFound.
	EnumOutput(index int) (Output, error)

	Release()
}

// Output is a display attached to an adapter.
type Output interface {
	Desc() (OutputDesc, error)

	// DisplayModes lists the modes the output supports in format, in the
	// order the platform reports them.
	DisplayModes(format gputypes.TextureFormat) ([]ModeDesc, error)

	Release()
}

// Device is the logical GPU context that creates every other object.
type Device interface {
	CreateFence(initial uint64) (Fence, error)
	CreateEvent() (Event, error)
	CreateCommandQueue(kind CommandListType) (CommandQueue, error)
	CreateCommandAllocator(kind CommandListType) (CommandAllocator, error)

	// CreateCommandList creates a list in the recording state, bound to
	// allocator.
	CreateCommandList(kind CommandListType, allocator CommandAllocator) (CommandList, error)

	CreateDescriptorHeap(desc DescriptorHeapDesc) (DescriptorHeap, error)
	DescriptorHandleIncrementSize(kind DescriptorHeapType) uint32

	CreateRenderTargetView(resource Resource, handle CPUDescriptorHandle)
	CreateDepthStencilView(resource Resource, format gputypes.TextureFormat, handle CPUDescriptorHandle)

	// CreateCommittedResource creates a 2D texture with its own implicit
	// heap, in the initial state.
	CreateCommittedResource(desc *TextureDesc, initial ResourceState, clear *ClearValue) (Resource, error)

	// MultisampleQualityLevels reports how many quality levels format
	// supports at the given sample count.
	MultisampleQualityLevels(format gputypes.TextureFormat, samples uint32) (uint32, error)

	Release()
}

// Fence is a monotonically increasing counter written by the GPU.
type Fence interface {
	CompletedValue() uint64

	// SetEventOnCompletion arranges for event to be signaled once the
	// completed value reaches value.
	SetEventOnCompletion(value uint64, event Event) error

	Release()
}

// Event is an OS wait object.
type Event interface {
	// Wait blocks until the event is signaled. There is no timeout.
	Wait() error
	Close() error
}

// CommandQueue executes command lists in submission order.
type CommandQueue interface {
	ExecuteCommandLists(lists ...CommandList)

	// Signal sets fence to value once all previously submitted work has
	// completed on the GPU.
	Signal(fence Fence, value uint64) error

	Release()
}

// CommandAllocator backs the memory of recorded commands.
type CommandAllocator interface {
	// Reset reclaims the memory. It is only legal once the GPU has
	// finished every list recorded against the allocator.
	Reset() error
	Release()
}

// CommandList records GPU commands. A list is either recording or closed;
// it must be closed before submission and reset before recording again.
type CommandList interface {
	Reset(allocator CommandAllocator) error
	Close() error

	ResourceBarrier(barriers ...ResourceBarrier)
	RSSetViewports(viewports ...Viewport)
	RSSetScissorRects(rects ...Rect)
	ClearRenderTargetView(handle CPUDescriptorHandle, color [4]float32)
	ClearDepthStencilView(handle CPUDescriptorHandle, flags ClearFlags, depth float32, stencil uint8)
	OMSetRenderTargets(rtv CPUDescriptorHandle, dsv *CPUDescriptorHandle)

	Release()
}

// DescriptorHeap is a fixed-capacity table of view descriptors.
type DescriptorHeap interface {
	CPUDescriptorHandleForHeapStart() CPUDescriptorHandle
	Release()
}

// Resource is a GPU allocation: a swap chain buffer or a texture.
type Resource interface {
	Release()
}

// SwapChain is the ring of presentable buffers bound to a window.
type SwapChain interface {
	// Buffer returns a new reference to the buffer at index. The caller
	// releases it.
	Buffer(index uint32) (Resource, error)

	// ResizeBuffers reallocates the buffers. Every reference returned by
	// Buffer must have been released first.
	ResizeBuffers(count, width, height uint32, format gputypes.TextureFormat, flags SwapChainFlags) error

	Present(syncInterval, flags uint32) error

	Release()
}
