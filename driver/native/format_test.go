package native

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestViewFormatRoundTrip(t *testing.T) {
	formats := []gputypes.TextureFormat{
		gputypes.TextureFormatRGBA8Unorm,
		gputypes.TextureFormatRGBA8UnormSrgb,
		gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatBGRA8UnormSrgb,
		gputypes.TextureFormatRGBA16Float,
		gputypes.TextureFormatRGB10A2Unorm,
		gputypes.TextureFormatDepth24PlusStencil8,
		gputypes.TextureFormatDepth32Float,
		gputypes.TextureFormatDepth32FloatStencil8,
	}
	for _, f := range formats {
		t.Run(f.String(), func(t *testing.T) {
			v, ok := viewFormat(f)
			if !ok {
				t.Fatalf("viewFormat(%v) not mapped", f)
			}
			if got := textureFormat(v); got != f {
				t.Errorf("textureFormat(%d) = %v, want %v", v, got, f)
			}
			r, ok := resourceFormat(f)
			if !ok {
				t.Fatalf("resourceFormat(%v) not mapped", f)
			}
			if got := textureFormat(r); got != f {
				t.Errorf("textureFormat(%d) = %v, want %v", r, got, f)
			}
		})
	}
}

func TestResourceFormatDepthIsTypeless(t *testing.T) {
	tests := []struct {
		in   gputypes.TextureFormat
		want uint32
	}{
		{gputypes.TextureFormatDepth24PlusStencil8, formatR24G8Typeless},
		{gputypes.TextureFormatDepth32Float, formatR32Typeless},
		{gputypes.TextureFormatDepth32FloatStencil8, formatR32G8X24Typeless},
		{gputypes.TextureFormatRGBA8Unorm, formatRGBA8Unorm},
	}
	for _, tt := range tests {
		if got, _ := resourceFormat(tt.in); got != tt.want {
			t.Errorf("resourceFormat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestUnmappedFormats(t *testing.T) {
	if v, ok := viewFormat(gputypes.TextureFormatUndefined); ok || v != formatUnknown {
		t.Errorf("viewFormat(Undefined) = %d, %v, want unknown", v, ok)
	}
	if _, ok := resourceFormat(gputypes.TextureFormatR8Unorm); ok {
		t.Error("resourceFormat(R8Unorm) mapped, want unsupported")
	}
	if got := textureFormat(9999); got != gputypes.TextureFormatUndefined {
		t.Errorf("textureFormat(9999) = %v, want Undefined", got)
	}
}

func TestDeviceType(t *testing.T) {
	tests := []struct {
		name     string
		software bool
		memory   uint64
		want     gputypes.DeviceType
	}{
		{"warp", true, 0, gputypes.DeviceTypeCPU},
		{"software with memory", true, 4 << 30, gputypes.DeviceTypeCPU},
		{"discrete", false, 8 << 30, gputypes.DeviceTypeDiscreteGPU},
		{"threshold", false, dedicatedMemoryDiscrete, gputypes.DeviceTypeDiscreteGPU},
		{"integrated", false, 128 << 20, gputypes.DeviceTypeIntegratedGPU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceType(tt.software, tt.memory); got != tt.want {
				t.Errorf("deviceType(%v, %d) = %v, want %v", tt.software, tt.memory, got, tt.want)
			}
		})
	}
}
