package driver

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Driver errors.
var (
	// ErrNotFound is returned when an adapter or output index is past the end.
	ErrNotFound = errors.New("driver: not found")

	// ErrUnsupported is returned when the driver cannot run on this platform.
	ErrUnsupported = errors.New("driver: unsupported platform")
)

// FeatureLevel is a Direct3D feature level.
type FeatureLevel uint32

// Feature levels.
const (
	FeatureLevel11_0 FeatureLevel = 0xb000
	FeatureLevel11_1 FeatureLevel = 0xb100
	FeatureLevel12_0 FeatureLevel = 0xc000
	FeatureLevel12_1 FeatureLevel = 0xc100
)

// CommandListType selects the engine a queue or list targets.
type CommandListType uint32

// Command list types.
const (
	CommandListDirect  CommandListType = 0
	CommandListCompute CommandListType = 2
	CommandListCopy    CommandListType = 3
)

// DescriptorHeapType identifies what a descriptor heap holds.
type DescriptorHeapType uint32

// Descriptor heap types.
const (
	DescriptorHeapCBVSRVUAV DescriptorHeapType = 0
	DescriptorHeapSampler   DescriptorHeapType = 1
	DescriptorHeapRTV       DescriptorHeapType = 2
	DescriptorHeapDSV       DescriptorHeapType = 3
)

// DescriptorHeapDesc describes a descriptor heap.
type DescriptorHeapDesc struct {
	Type           DescriptorHeapType
	NumDescriptors uint32
	ShaderVisible  bool
}

// CPUDescriptorHandle addresses a descriptor slot in a heap.
type CPUDescriptorHandle struct {
	Ptr uintptr
}

// Offset returns the handle index slots further, stride incrementSize.
func (h CPUDescriptorHandle) Offset(index int, incrementSize uint32) CPUDescriptorHandle {
	return CPUDescriptorHandle{Ptr: h.Ptr + uintptr(index)*uintptr(incrementSize)}
}

// ResourceState is a D3D12 resource state bitmask.
type ResourceState uint32

// Resource states used by the backend.
const (
	ResourceStateCommon       ResourceState = 0
	ResourceStateRenderTarget ResourceState = 0x4
	ResourceStateDepthWrite   ResourceState = 0x10
	ResourceStateDepthRead    ResourceState = 0x20
	// ResourceStatePresent aliases Common, as in D3D12.
	ResourceStatePresent ResourceState = 0
)

// String returns the D3D12 name of the state.
func (s ResourceState) String() string {
	switch s {
	case ResourceStateCommon:
		return "COMMON"
	case ResourceStateRenderTarget:
		return "RENDER_TARGET"
	case ResourceStateDepthWrite:
		return "DEPTH_WRITE"
	case ResourceStateDepthRead:
		return "DEPTH_READ"
	default:
		return "UNKNOWN"
	}
}

// ResourceBarrier is a whole-resource transition barrier.
type ResourceBarrier struct {
	Resource Resource
	Before   ResourceState
	After    ResourceState
}

// Transition returns a barrier moving resource from before to after.
func Transition(resource Resource, before, after ResourceState) ResourceBarrier {
	return ResourceBarrier{Resource: resource, Before: before, After: after}
}

// Viewport maps normalized device coordinates to the render target.
type Viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// ClearFlags selects the planes ClearDepthStencilView clears.
type ClearFlags uint32

// Clear flags.
const (
	ClearDepth   ClearFlags = 0x1
	ClearStencil ClearFlags = 0x2
)

// ClearValue is the optimized clear value of a resource.
type ClearValue struct {
	Format  gputypes.TextureFormat
	Color   [4]float32
	Depth   float32
	Stencil uint8
}

// ResourceFlags are texture usage flags.
type ResourceFlags uint32

// Resource flags.
const (
	ResourceFlagNone              ResourceFlags = 0
	ResourceFlagAllowRenderTarget ResourceFlags = 0x1
	ResourceFlagAllowDepthStencil ResourceFlags = 0x2
)

// TextureDesc describes a 2D texture in the default heap.
type TextureDesc struct {
	Width       uint64
	Height      uint32
	ArraySize   uint16
	MipLevels   uint16
	Format      gputypes.TextureFormat
	SampleCount uint32
	Quality     uint32
	Flags       ResourceFlags
}

// SwapEffect selects how presented buffers are handled.
type SwapEffect uint32

// Swap effects.
const (
	SwapEffectFlipSequential SwapEffect = 3
	SwapEffectFlipDiscard    SwapEffect = 4
)

// SwapChainFlags are DXGI swap chain flags.
type SwapChainFlags uint32

// Swap chain flags.
const (
	SwapChainFlagNone            SwapChainFlags = 0
	SwapChainFlagAllowModeSwitch SwapChainFlags = 0x2
)

// Rational is a refresh rate as numerator over denominator.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// SwapChainDesc describes a windowed swap chain.
type SwapChainDesc struct {
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	RefreshRate Rational
	SampleCount uint32
	BufferCount uint32
	SwapEffect  SwapEffect
	Flags       SwapChainFlags
	Windowed    bool
}

// AdapterDesc identifies an adapter.
type AdapterDesc struct {
	Description string
	VendorID    uint32
	DeviceID    uint32
	// DedicatedVideoMemory is in bytes.
	DedicatedVideoMemory uint64
	DeviceType           gputypes.DeviceType
}

// OutputDesc identifies a display.
type OutputDesc struct {
	DeviceName         string
	AttachedToDesktop  bool
	DesktopCoordinates Rect
}

// ModeDesc is one display mode as reported by the platform.
type ModeDesc struct {
	Width       uint32
	Height      uint32
	RefreshRate Rational
	Format      gputypes.TextureFormat
}
