package native

import "github.com/gogpu/gputypes"

// DXGI format values used by the driver. They match DXGI_FORMAT in
// dxgiformat.h.
const (
	formatUnknown           uint32 = 0
	formatRGBA16Float       uint32 = 10
	formatR32G8X24Typeless  uint32 = 19
	formatD32FloatS8X24Uint uint32 = 20
	formatR10G10B10A2Unorm  uint32 = 24
	formatRGBA8Unorm        uint32 = 28
	formatRGBA8UnormSrgb    uint32 = 29
	formatR32Typeless       uint32 = 39
	formatD32Float          uint32 = 40
	formatR24G8Typeless     uint32 = 44
	formatD24UnormS8Uint    uint32 = 45
	formatBGRA8Unorm        uint32 = 87
	formatBGRA8UnormSrgb    uint32 = 91
)

// viewFormat returns the DXGI format views of f are created with. It
// reports false for formats the driver does not map.
func viewFormat(f gputypes.TextureFormat) (uint32, bool) {
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return formatRGBA8Unorm, true
	case gputypes.TextureFormatRGBA8UnormSrgb:
		return formatRGBA8UnormSrgb, true
	case gputypes.TextureFormatBGRA8Unorm:
		return formatBGRA8Unorm, true
	case gputypes.TextureFormatBGRA8UnormSrgb:
		return formatBGRA8UnormSrgb, true
	case gputypes.TextureFormatRGBA16Float:
		return formatRGBA16Float, true
	case gputypes.TextureFormatRGB10A2Unorm:
		return formatR10G10B10A2Unorm, true
	case gputypes.TextureFormatDepth24PlusStencil8:
		return formatD24UnormS8Uint, true
	case gputypes.TextureFormatDepth32Float:
		return formatD32Float, true
	case gputypes.TextureFormatDepth32FloatStencil8:
		return formatD32FloatS8X24Uint, true
	default:
		return formatUnknown, false
	}
}

// resourceFormat returns the DXGI format a resource of f is allocated
// with. Depth formats are allocated typeless so that they can also be
// viewed as shader resources.
func resourceFormat(f gputypes.TextureFormat) (uint32, bool) {
	switch f {
	case gputypes.TextureFormatDepth24PlusStencil8:
		return formatR24G8Typeless, true
	case gputypes.TextureFormatDepth32Float:
		return formatR32Typeless, true
	case gputypes.TextureFormatDepth32FloatStencil8:
		return formatR32G8X24Typeless, true
	default:
		return viewFormat(f)
	}
}

// textureFormat maps a DXGI format back to its texture format.
func textureFormat(dxgi uint32) gputypes.TextureFormat {
	switch dxgi {
	case formatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case formatRGBA8UnormSrgb:
		return gputypes.TextureFormatRGBA8UnormSrgb
	case formatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case formatBGRA8UnormSrgb:
		return gputypes.TextureFormatBGRA8UnormSrgb
	case formatRGBA16Float:
		return gputypes.TextureFormatRGBA16Float
	case formatR10G10B10A2Unorm:
		return gputypes.TextureFormatRGB10A2Unorm
	case formatD24UnormS8Uint, formatR24G8Typeless:
		return gputypes.TextureFormatDepth24PlusStencil8
	case formatD32Float, formatR32Typeless:
		return gputypes.TextureFormatDepth32Float
	case formatD32FloatS8X24Uint, formatR32G8X24Typeless:
		return gputypes.TextureFormatDepth32FloatStencil8
	default:
		return gputypes.TextureFormatUndefined
	}
}

// dedicatedMemoryDiscrete is the dedicated video memory from which a
// hardware adapter is classified as discrete. DXGI does not report the
// adapter kind directly.
const dedicatedMemoryDiscrete = 512 << 20

// deviceType classifies an adapter from its DXGI description.
func deviceType(software bool, dedicatedVideoMemory uint64) gputypes.DeviceType {
	switch {
	case software:
		return gputypes.DeviceTypeCPU
	case dedicatedVideoMemory >= dedicatedMemoryDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	default:
		return gputypes.DeviceTypeIntegratedGPU
	}
}
