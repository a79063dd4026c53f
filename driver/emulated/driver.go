// Package emulated implements the syren driver interfaces with a simulated
// GPU.
//
// Each command queue owns a goroutine playing the GPU timeline: submitted
// command lists execute asynchronously, in order, and fences advance only
// when the work before them has retired. The simulation tracks resource
// states, view bindings and object lifetimes, and records every misuse of
// the D3D12 protocol as a violation instead of corrupting memory, which
// makes it the reference test double for the directx backend.
//
//	drv := emulated.New(emulated.DefaultConfig())
//	b := directx.New(target, directx.WithDriver(drv.Open))
//	...
//	if v := drv.Violations(); len(v) > 0 {
//		t.Fatal(v)
//	}
package emulated

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/driver"
)

// Emulated driver errors.
var (
	// ErrInjected is returned by calls failed through Config.Faults.
	ErrInjected = errors.New("emulated: injected fault")

	// ErrInvalidCall is returned for calls the platform would reject.
	ErrInvalidCall = errors.New("emulated: invalid call")
)

// Driver is an emulated GPU installation shared by every factory it opens.
type Driver struct {
	mu         sync.Mutex
	cfg        Config
	adapters   []AdapterSpec
	faults     atomic.Uint32
	violations []error
	live       atomic.Int64
	devices    []*Device
	nextHeap   uintptr
}

// New creates an emulated driver.
func New(cfg Config) *Driver {
	d := &Driver{
		cfg:      cfg,
		adapters: rankAdapters(cfg.Adapters),
		nextHeap: 0x10000,
	}
	d.faults.Store(uint32(cfg.Faults))
	return d
}

// Open opens a factory. It has the signature of driver.Opener.
func (d *Driver) Open() (driver.Factory, error) {
	if d.fails(FailFactory) {
		return nil, fmt.Errorf("CreateDXGIFactory2: %w", ErrInjected)
	}
	d.acquire()
	return &factory{drv: d}, nil
}

// SetFaults replaces the injected faults.
func (d *Driver) SetFaults(f Fault) { d.faults.Store(uint32(f)) }

// Violations returns the protocol violations observed so far.
func (d *Driver) Violations() []error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]error, len(d.violations))
	copy(out, d.violations)
	return out
}

// Live returns the number of objects created and not yet released.
func (d *Driver) Live() int { return int(d.live.Load()) }

// Device returns the most recently created device, or nil.
func (d *Driver) Device() *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.devices) == 0 {
		return nil
	}
	return d.devices[len(d.devices)-1]
}

func (d *Driver) fails(f Fault) bool { return Fault(d.faults.Load()).Has(f) }

func (d *Driver) acquire() { d.live.Add(1) }

func (d *Driver) release() { d.live.Add(-1) }

// violate records a protocol violation. Callers may hold d.mu.
func (d *Driver) violate(format string, args ...any) {
	err := fmt.Errorf("emulated: "+format, args...)
	syren.Logger().Warn("emulated: protocol violation", "err", err)
	d.violations = append(d.violations, err)
}

// violatef takes d.mu before recording.
func (d *Driver) violatef(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.violate(format, args...)
}

// releaser guards an object against double release.
type releaser struct {
	drv      *Driver
	what     string
	released atomic.Bool
}

func (r *releaser) track(drv *Driver, what string) {
	r.drv = drv
	r.what = what
	drv.acquire()
}

// drop marks the object released. It reports false on a double release.
func (r *releaser) drop() bool {
	if !r.released.CompareAndSwap(false, true) {
		r.drv.violatef("%s released twice", r.what)
		return false
	}
	r.drv.release()
	return true
}

func (r *releaser) alive() bool { return !r.released.Load() }

type factory struct {
	drv      *Driver
	released atomic.Bool
}

func (f *factory) EnumAdapter(index int) (driver.Adapter, error) {
	if index < 0 || index >= len(f.drv.adapters) {
		return nil, driver.ErrNotFound
	}
	return newAdapter(f.drv, f.drv.adapters[index], false), nil
}

func (f *factory) WarpAdapter() (driver.Adapter, error) {
	if f.drv.fails(FailWarpAdapter) {
		return nil, fmt.Errorf("EnumWarpAdapter: %w", ErrInjected)
	}
	return newAdapter(f.drv, f.drv.cfg.Warp, true), nil
}

func (f *factory) CreateDevice(a driver.Adapter, level driver.FeatureLevel) (driver.Device, error) {
	ad, ok := a.(*adapter)
	if !ok || !ad.alive() {
		return nil, fmt.Errorf("D3D12CreateDevice: %w", ErrInvalidCall)
	}
	if ad.warp && f.drv.fails(FailWarpDevice) || !ad.warp && f.drv.fails(FailHardwareDevice) {
		return nil, fmt.Errorf("D3D12CreateDevice(%s): %w", ad.spec.Name, ErrInjected)
	}
	if level > driver.FeatureLevel12_1 {
		return nil, fmt.Errorf("D3D12CreateDevice: feature level %#x: %w", uint32(level), ErrInvalidCall)
	}
	dev := newDevice(f.drv, ad.spec.Name)
	f.drv.mu.Lock()
	f.drv.devices = append(f.drv.devices, dev)
	f.drv.mu.Unlock()
	return dev, nil
}

func (f *factory) CreateSwapChain(q driver.CommandQueue, window uintptr, desc *driver.SwapChainDesc) (driver.SwapChain, error) {
	qu, ok := q.(*queue)
	if !ok || !qu.alive() {
		return nil, fmt.Errorf("CreateSwapChainForHwnd: %w", ErrInvalidCall)
	}
	if f.drv.fails(FailSwapChain) {
		return nil, fmt.Errorf("CreateSwapChainForHwnd: %w", ErrInjected)
	}
	if desc.BufferCount < 2 || desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("CreateSwapChainForHwnd: %dx%d with %d buffers: %w",
			desc.Width, desc.Height, desc.BufferCount, ErrInvalidCall)
	}
	return newSwapChain(qu, window, desc), nil
}

func (f *factory) Release() {
	if f.released.CompareAndSwap(false, true) {
		f.drv.release()
	}
}

type adapter struct {
	releaser
	spec AdapterSpec
	warp bool
}

func newAdapter(drv *Driver, spec AdapterSpec, warp bool) *adapter {
	a := &adapter{spec: spec, warp: warp}
	a.track(drv, "adapter "+spec.Name)
	return a
}

func (a *adapter) Desc() (driver.AdapterDesc, error) {
	return driver.AdapterDesc{
		Description:          a.spec.Name,
		VendorID:             a.spec.VendorID,
		DeviceID:             a.spec.DeviceID,
		DedicatedVideoMemory: a.spec.VideoMemory,
		DeviceType:           a.spec.DeviceType,
	}, nil
}

func (a *adapter) EnumOutput(index int) (driver.Output, error) {
	if index < 0 || index >= len(a.spec.Outputs) {
		return nil, driver.ErrNotFound
	}
	o := &output{spec: a.spec.Outputs[index]}
	o.track(a.drv, "output "+o.spec.Name)
	return o, nil
}

func (a *adapter) Release() { a.drop() }

type output struct {
	releaser
	spec OutputSpec
}

func (o *output) Desc() (driver.OutputDesc, error) {
	return driver.OutputDesc{DeviceName: o.spec.Name, AttachedToDesktop: true}, nil
}

func (o *output) DisplayModes(format gputypes.TextureFormat) ([]driver.ModeDesc, error) {
	var modes []driver.ModeDesc
	for _, m := range o.spec.Modes {
		if m.Format == format {
			modes = append(modes, m)
		}
	}
	return modes, nil
}

func (o *output) Release() { o.drop() }
