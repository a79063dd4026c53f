package directx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver"
)

// Adapters lists the graphics adapters, ordered from the highest to the
// lowest estimated performance. It needs no device and does not touch the
// backend's state. A machine without adapters yields an empty list.
func (b *Backend) Adapters() ([]backend.Adapter, backend.Result) {
	factory, err := b.opts.open()
	if err != nil {
		return nil, backend.Fail(backend.ErrCreation, "Could not create DXGI Factory.", err)
	}
	defer factory.Release()

	var adapters []backend.Adapter
	for i := 0; ; i++ {
		a, err := factory.EnumAdapter(i)
		if errors.Is(err, driver.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, backend.Fail(backend.ErrCreation, "Failed to enumerate adapters.", err)
		}
		desc, err := a.Desc()
		a.Release()
		if err != nil {
			return nil, backend.Fail(backend.ErrCreation, "Failed to describe an adapter.", err)
		}
		adapters = append(adapters, backend.Adapter{
			Index: i,
			Name:  desc.Description,
			Type:  adapterType(desc.DeviceType),
		})
	}
	return adapters, backend.Success("Adapters returned.")
}

// Outputs lists the displays attached to the adapter at index.
func (b *Backend) Outputs(adapter int) ([]backend.Output, backend.Result) {
	factory, a, r := b.openAdapter(adapter)
	if !r.OK() {
		return nil, r
	}
	defer factory.Release()
	defer a.Release()

	var outputs []backend.Output
	for i := 0; ; i++ {
		o, err := a.EnumOutput(i)
		if errors.Is(err, driver.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, backend.Fail(backend.ErrCreation, "Failed to enumerate output devices.", err)
		}
		desc, err := o.Desc()
		o.Release()
		if err != nil {
			return nil, backend.Fail(backend.ErrCreation, "Failed to describe an output device.", err)
		}
		outputs = append(outputs, backend.Output{Index: i, DeviceName: desc.DeviceName})
	}
	return outputs, backend.Success("Output devices returned.")
}

// DisplayModes lists the modes of an output in the configured mode format,
// in the order the platform reports them. Modes with a zero refresh
// denominator are skipped.
func (b *Backend) DisplayModes(adapter, output int) ([]backend.DisplayMode, backend.Result) {
	factory, a, r := b.openAdapter(adapter)
	if !r.OK() {
		return nil, r
	}
	defer factory.Release()
	defer a.Release()

	o, err := a.EnumOutput(output)
	if errors.Is(err, driver.ErrNotFound) {
		return nil, backend.Fail(backend.ErrNotFound,
			fmt.Sprintf("Could not find output device at index position %d.", output), nil)
	}
	if err != nil {
		return nil, backend.Fail(backend.ErrCreation, "Failed to enumerate output devices.", err)
	}
	defer o.Release()

	descs, err := o.DisplayModes(b.opts.modeFormat)
	if err != nil {
		return nil, backend.Fail(backend.ErrCreation, "Failed to get the display mode list.", err)
	}

	modes := make([]backend.DisplayMode, 0, len(descs))
	for _, d := range descs {
		if d.RefreshRate.Denominator == 0 {
			continue
		}
		modes = append(modes, backend.DisplayMode{
			Index:       len(modes),
			Width:       int(d.Width),
			Height:      int(d.Height),
			RefreshRate: int(d.RefreshRate.Numerator / d.RefreshRate.Denominator),
		})
	}
	return modes, backend.Success("Display modes returned.")
}

// openAdapter opens a short-lived factory and the adapter at index. The
// caller releases both.
func (b *Backend) openAdapter(index int) (driver.Factory, driver.Adapter, backend.Result) {
	factory, err := b.opts.open()
	if err != nil {
		return nil, nil, backend.Fail(backend.ErrCreation, "Could not create DXGI Factory.", err)
	}
	a, err := factory.EnumAdapter(index)
	if err != nil {
		factory.Release()
		if errors.Is(err, driver.ErrNotFound) {
			return nil, nil, backend.Fail(backend.ErrNotFound,
				fmt.Sprintf("Could not find adapter at index position %d.", index), nil)
		}
		return nil, nil, backend.Fail(backend.ErrCreation, "Failed to enumerate adapters.", err)
	}
	return factory, a, backend.Success("Adapter returned.")
}

// adapterType classifies a device type for the engine.
func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
