package emulated

import (
	"sort"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/gogpu/wgpu/hal/software"

	"github.com/gogpu/syren/driver"
)

// Fault selects driver calls that fail on purpose.
type Fault uint32

// Injectable faults.
const (
	FailFactory Fault = 1 << iota
	FailHardwareDevice
	FailWarpAdapter
	FailWarpDevice
	FailFence
	FailEvent
	FailCommandQueue
	FailCommandAllocator
	FailCommandList
	FailSwapChain
	FailDescriptorHeap
	FailCommittedResource
	FailSignal
	FailSetEventOnCompletion
	FailResizeBuffers
	FailPresent
)

// Has reports whether f includes every bit of other.
func (f Fault) Has(other Fault) bool { return f&other == other }

// OutputSpec describes an emulated display.
type OutputSpec struct {
	Name  string
	Modes []driver.ModeDesc
}

// AdapterSpec describes an emulated adapter.
type AdapterSpec struct {
	Name        string
	VendorID    uint32
	DeviceID    uint32
	DeviceType  gputypes.DeviceType
	VideoMemory uint64
	Outputs     []OutputSpec
}

// Config configures an emulated driver.
type Config struct {
	// Adapters are reported by EnumAdapter, ranked by device type.
	Adapters []AdapterSpec

	// Warp is the adapter returned by WarpAdapter.
	Warp AdapterSpec

	// Faults lists the calls that fail.
	Faults Fault

	// MSAAQualityLevels is reported for every format at 4 samples.
	MSAAQualityLevels uint32

	// Latency is how long the GPU takes to execute one command list.
	Latency time.Duration
}

// DefaultConfig returns a configuration whose adapters are the CPU
// backends of the wgpu HAL, each driving one 1080p display.
func DefaultConfig() Config {
	return Config{
		Adapters:          halAdapters(noop.API{}, software.API{}),
		Warp:              AdapterSpec{Name: "Microsoft Basic Render Driver", VendorID: 0x1414, DeviceID: 0x8c, DeviceType: gputypes.DeviceTypeCPU},
		MSAAQualityLevels: 1,
	}
}

// halAdapters describes one emulated adapter per adapter exposed by the
// given HAL backends.
func halAdapters(backends ...hal.Backend) []AdapterSpec {
	var specs []AdapterSpec
	for _, b := range backends {
		inst, err := b.CreateInstance(&hal.InstanceDescriptor{})
		if err != nil {
			continue
		}
		for _, exposed := range inst.EnumerateAdapters(nil) {
			specs = append(specs, AdapterSpec{
				Name:        exposed.Info.Name,
				VendorID:    exposed.Info.VendorID,
				DeviceID:    exposed.Info.DeviceID,
				DeviceType:  exposed.Info.DeviceType,
				VideoMemory: exposed.Capabilities.Limits.MaxBufferSize,
				Outputs:     []OutputSpec{DefaultOutput(`\\.\DISPLAY1`)},
			})
			exposed.Adapter.Destroy()
		}
		inst.Destroy()
	}
	return specs
}

// DefaultOutput returns a display supporting common modes in both the
// RGBA8 and RGBA16F formats.
func DefaultOutput(name string) OutputSpec {
	type mode struct {
		w, h     uint32
		num, den uint32
	}
	modes := []mode{
		{800, 600, 60, 1},
		{1280, 720, 60, 1},
		{1920, 1080, 60000, 1001},
		{1920, 1080, 60, 1},
		{1920, 1080, 144, 1},
	}
	var out []driver.ModeDesc
	for _, f := range []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA16Float} {
		for _, m := range modes {
			out = append(out, driver.ModeDesc{
				Width:       m.w,
				Height:      m.h,
				RefreshRate: driver.Rational{Numerator: m.num, Denominator: m.den},
				Format:      f,
			})
		}
	}
	return OutputSpec{Name: name, Modes: out}
}

// deviceRank orders device types from the fastest to the slowest.
func deviceRank(t gputypes.DeviceType) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return 0
	case gputypes.DeviceTypeIntegratedGPU:
		return 1
	case gputypes.DeviceTypeVirtualGPU:
		return 2
	case gputypes.DeviceTypeOther:
		return 3
	default:
		return 4
	}
}

// rankAdapters sorts adapters by device type, then by video memory.
func rankAdapters(specs []AdapterSpec) []AdapterSpec {
	ranked := make([]AdapterSpec, len(specs))
	copy(ranked, specs)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := deviceRank(ranked[i].DeviceType), deviceRank(ranked[j].DeviceType)
		if ri != rj {
			return ri < rj
		}
		return ranked[i].VideoMemory > ranked[j].VideoMemory
	})
	return ranked
}
