//go:build windows && !(js && wasm)

package native

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/dx12/d3d12"
	"github.com/gogpu/wgpu/hal/dx12/dxgi"

	"github.com/gogpu/syren/driver"
)

// errForeign is returned when an object from another driver is passed in.
var errForeign = errors.New("native: object was not created by this driver")

// Open loads dxgi.dll and d3d12.dll and creates a DXGI factory.
func Open() (driver.Factory, error) {
	dxgiLib, err := dxgi.LoadDXGI()
	if err != nil {
		return nil, fmt.Errorf("native: load dxgi: %w", err)
	}
	d3dLib, err := d3d12.LoadD3D12()
	if err != nil {
		return nil, fmt.Errorf("native: load d3d12: %w", err)
	}
	f, err := dxgiLib.CreateFactory2(0)
	if err != nil {
		return nil, fmt.Errorf("CreateDXGIFactory2: %w", err)
	}
	return &factory{raw: f, d3d: d3dLib}, nil
}

type factory struct {
	raw *dxgi.IDXGIFactory6
	d3d *d3d12.D3D12Lib
}

func (f *factory) EnumAdapter(index int) (driver.Adapter, error) {
	if index < 0 {
		return nil, driver.ErrNotFound
	}
	a, err := f.raw.EnumAdapterByGpuPreference(uint32(index), dxgi.DXGI_GPU_PREFERENCE_HIGH_PERFORMANCE)
	if errors.Is(err, dxgi.DXGI_ERROR_NOT_FOUND) {
		return nil, driver.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("EnumAdapterByGpuPreference(%d): %w", index, err)
	}
	return &adapter{raw: a}, nil
}

func (f *factory) WarpAdapter() (driver.Adapter, error) {
	a, err := f.raw.EnumWarpAdapter()
	if err != nil {
		return nil, fmt.Errorf("EnumWarpAdapter: %w", err)
	}
	return &adapter{raw: a}, nil
}

func (f *factory) CreateDevice(a driver.Adapter, level driver.FeatureLevel) (driver.Device, error) {
	ad, ok := a.(*adapter)
	if !ok {
		return nil, errForeign
	}
	d, err := f.d3d.CreateDevice(unsafe.Pointer(ad.raw), d3d12.D3D_FEATURE_LEVEL(level))
	if err != nil {
		return nil, fmt.Errorf("D3D12CreateDevice: %w", err)
	}
	return &device{raw: d}, nil
}

func (f *factory) CreateSwapChain(q driver.CommandQueue, window uintptr, desc *driver.SwapChainDesc) (driver.SwapChain, error) {
	cq, ok := q.(*queue)
	if !ok {
		return nil, errForeign
	}
	format, ok := viewFormat(desc.Format)
	if !ok {
		return nil, fmt.Errorf("native: unsupported swap chain format %v", desc.Format)
	}

	scDesc := dxgi.DXGI_SWAP_CHAIN_DESC1{
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      dxgi.DXGI_FORMAT(format),
		SampleDesc:  dxgi.DXGI_SAMPLE_DESC{Count: max(desc.SampleCount, 1)},
		BufferUsage: dxgi.DXGI_USAGE_RENDER_TARGET_OUTPUT,
		BufferCount: desc.BufferCount,
		Scaling:     dxgi.DXGI_SCALING_STRETCH,
		SwapEffect:  dxgi.DXGI_SWAP_EFFECT(desc.SwapEffect),
		AlphaMode:   dxgi.DXGI_ALPHA_MODE_UNSPECIFIED,
		Flags:       uint32(desc.Flags),
	}
	fsDesc := dxgi.DXGI_SWAP_CHAIN_FULLSCREEN_DESC{
		RefreshRate: dxgi.DXGI_RATIONAL{
			Numerator:   desc.RefreshRate.Numerator,
			Denominator: desc.RefreshRate.Denominator,
		},
		ScanlineOrdering: dxgi.DXGI_MODE_SCANLINE_ORDER_UNSPECIFIED,
		Scaling:          dxgi.DXGI_MODE_SCALING_UNSPECIFIED,
	}
	if desc.Windowed {
		fsDesc.Windowed = 1
	}

	sc, err := f.raw.CreateSwapChainForHwnd(unsafe.Pointer(cq.raw), window, &scDesc, &fsDesc, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateSwapChainForHwnd: %w", err)
	}
	return &swapChain{raw: sc}, nil
}

func (f *factory) Release() { f.raw.Release() }

type adapter struct {
	raw *dxgi.IDXGIAdapter4
}

func (a *adapter) Desc() (driver.AdapterDesc, error) {
	d, err := a.raw.GetDesc1()
	if err != nil {
		return driver.AdapterDesc{}, fmt.Errorf("GetDesc1: %w", err)
	}
	software := d.Flags&dxgi.DXGI_ADAPTER_FLAG_SOFTWARE != 0
	return driver.AdapterDesc{
		Description:          d.DescriptionString(),
		VendorID:             d.VendorID,
		DeviceID:             d.DeviceID,
		DedicatedVideoMemory: uint64(d.DedicatedVideoMemory),
		DeviceType:           deviceType(software, uint64(d.DedicatedVideoMemory)),
	}, nil
}

func (a *adapter) EnumOutput(index int) (driver.Output, error) {
	if index < 0 {
		return nil, driver.ErrNotFound
	}
	o, err := a.raw.EnumOutputs(uint32(index))
	if errors.Is(err, dxgi.DXGI_ERROR_NOT_FOUND) {
		return nil, driver.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("EnumOutputs(%d): %w", index, err)
	}
	return &output{raw: o}, nil
}

func (a *adapter) Release() { a.raw.Release() }

type output struct {
	raw *dxgi.IDXGIOutput
}

func (o *output) Desc() (driver.OutputDesc, error) {
	d, err := o.raw.GetDesc()
	if err != nil {
		return driver.OutputDesc{}, fmt.Errorf("GetDesc: %w", err)
	}
	return driver.OutputDesc{
		DeviceName:        d.DeviceNameString(),
		AttachedToDesktop: d.AttachedToDesktop != 0,
		DesktopCoordinates: driver.Rect{
			Left:   d.DesktopCoordinates.Left,
			Top:    d.DesktopCoordinates.Top,
			Right:  d.DesktopCoordinates.Right,
			Bottom: d.DesktopCoordinates.Bottom,
		},
	}, nil
}

func (o *output) DisplayModes(format gputypes.TextureFormat) ([]driver.ModeDesc, error) {
	f, ok := viewFormat(format)
	if !ok {
		return nil, nil
	}
	raw, err := displayModeList(o.raw, f)
	if err != nil {
		return nil, err
	}
	modes := make([]driver.ModeDesc, 0, len(raw))
	for _, m := range raw {
		modes = append(modes, driver.ModeDesc{
			Width:  m.Width,
			Height: m.Height,
			RefreshRate: driver.Rational{
				Numerator:   m.RefreshRate.Numerator,
				Denominator: m.RefreshRate.Denominator,
			},
			Format: textureFormat(uint32(m.Format)),
		})
	}
	return modes, nil
}

func (o *output) Release() { o.raw.Release() }

// outputObject mirrors the memory layout of IDXGIOutput. The bindings do
// not expose GetDisplayModeList, so it is called through the vtable.
type outputObject struct {
	vtbl *outputVtbl
}

type outputVtbl struct {
	QueryInterface          uintptr
	AddRef                  uintptr
	Release                 uintptr
	SetPrivateData          uintptr
	SetPrivateDataInterface uintptr
	GetPrivateData          uintptr
	GetParent               uintptr
	GetDesc                 uintptr
	GetDisplayModeList      uintptr
}

// displayModeList calls IDXGIOutput::GetDisplayModeList twice: once for
// the count and once to fill the slice.
func displayModeList(o *dxgi.IDXGIOutput, format uint32) ([]dxgi.DXGI_MODE_DESC, error) {
	obj := (*outputObject)(unsafe.Pointer(o))

	var n uint32
	hr, _, _ := syscall.SyscallN(obj.vtbl.GetDisplayModeList,
		uintptr(unsafe.Pointer(o)),
		uintptr(format),
		0,
		uintptr(unsafe.Pointer(&n)),
		0,
	)
	if hr != 0 {
		return nil, fmt.Errorf("GetDisplayModeList: %w", d3d12.HRESULTError(hr))
	}
	if n == 0 {
		return nil, nil
	}

	modes := make([]dxgi.DXGI_MODE_DESC, n)
	hr, _, _ = syscall.SyscallN(obj.vtbl.GetDisplayModeList,
		uintptr(unsafe.Pointer(o)),
		uintptr(format),
		0,
		uintptr(unsafe.Pointer(&n)),
		uintptr(unsafe.Pointer(&modes[0])),
	)
	if hr != 0 {
		return nil, fmt.Errorf("GetDisplayModeList: %w", d3d12.HRESULTError(hr))
	}
	return modes[:n], nil
}
