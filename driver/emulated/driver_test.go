package emulated

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/syren/driver"
)

func testDriver(t *testing.T, cfg Config) (*Driver, driver.Factory) {
	t.Helper()
	drv := New(cfg)
	f, err := drv.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(f.Release)
	return drv, f
}

func testDevice(t *testing.T, f driver.Factory) driver.Device {
	t.Helper()
	a, err := f.EnumAdapter(0)
	if err != nil {
		t.Fatalf("EnumAdapter(0) error = %v", err)
	}
	defer a.Release()
	dev, err := f.CreateDevice(a, driver.FeatureLevel11_0)
	if err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}
	return dev
}

func TestRankAdapters(t *testing.T) {
	specs := []AdapterSpec{
		{Name: "cpu", DeviceType: gputypes.DeviceTypeCPU},
		{Name: "small igpu", DeviceType: gputypes.DeviceTypeIntegratedGPU, VideoMemory: 1 << 20},
		{Name: "dgpu", DeviceType: gputypes.DeviceTypeDiscreteGPU, VideoMemory: 1 << 30},
		{Name: "big igpu", DeviceType: gputypes.DeviceTypeIntegratedGPU, VideoMemory: 1 << 28},
	}
	got := rankAdapters(specs)
	want := []string{"dgpu", "big igpu", "small igpu", "cpu"}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("rank %d = %s, want %s", i, got[i].Name, name)
		}
	}
	if specs[0].Name != "cpu" {
		t.Error("rankAdapters modified its input")
	}
}

func TestFaultHas(t *testing.T) {
	f := FailFence | FailPresent
	if !f.Has(FailFence) || !f.Has(FailPresent) || !f.Has(FailFence|FailPresent) {
		t.Errorf("%b should include its own bits", f)
	}
	if f.Has(FailSignal) || f.Has(FailFence|FailSignal) {
		t.Errorf("%b should not include FailSignal", f)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Adapters) == 0 {
		t.Fatal("DefaultConfig() has no adapters")
	}
	for _, a := range cfg.Adapters {
		if a.Name == "" || len(a.Outputs) != 1 {
			t.Errorf("adapter %+v: want a name and one output", a)
		}
	}
	if cfg.Warp.DeviceType != gputypes.DeviceTypeCPU {
		t.Errorf("warp device type = %v, want CPU", cfg.Warp.DeviceType)
	}
}

func TestFactoryFault(t *testing.T) {
	drv := New(Config{Faults: FailFactory})
	if _, err := drv.Open(); !errors.Is(err, ErrInjected) {
		t.Errorf("Open() error = %v, want ErrInjected", err)
	}
	drv.SetFaults(0)
	f, err := drv.Open()
	if err != nil {
		t.Fatalf("Open() after clearing faults = %v", err)
	}
	f.Release()
	if drv.Live() != 0 {
		t.Errorf("Live() = %d after release", drv.Live())
	}
}

func TestEnumAdapterPastEnd(t *testing.T) {
	_, f := testDriver(t, DefaultConfig())
	for _, i := range []int{-1, 100} {
		if _, err := f.EnumAdapter(i); !errors.Is(err, driver.ErrNotFound) {
			t.Errorf("EnumAdapter(%d) error = %v, want ErrNotFound", i, err)
		}
	}
}

func TestFenceWaitsForQueuedWork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Latency = 20 * time.Millisecond
	drv, f := testDriver(t, cfg)
	dev := testDevice(t, f)

	q, _ := dev.CreateCommandQueue(driver.CommandListDirect)
	alloc, _ := dev.CreateCommandAllocator(driver.CommandListDirect)
	list, _ := dev.CreateCommandList(driver.CommandListDirect, alloc)
	fe, _ := dev.CreateFence(0)
	ev, _ := dev.CreateEvent()

	if err := list.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	q.ExecuteCommandLists(list)
	if err := q.Signal(fe, 1); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
	if got := fe.CompletedValue(); got != 0 {
		t.Errorf("CompletedValue() before the GPU ran = %d, want 0", got)
	}
	if err := fe.SetEventOnCompletion(1, ev); err != nil {
		t.Fatalf("SetEventOnCompletion() error = %v", err)
	}
	if err := ev.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got := fe.CompletedValue(); got != 1 {
		t.Errorf("CompletedValue() after wait = %d, want 1", got)
	}
	if err := alloc.Reset(); err != nil {
		t.Errorf("Reset() after the fence = %v", err)
	}

	ev.Close()
	list.Release()
	alloc.Release()
	fe.Release()
	q.Release()
	dev.Release()
	if v := drv.Violations(); len(v) != 0 {
		t.Errorf("Violations() = %v", v)
	}
}

func TestAllocatorResetInFlight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Latency = 50 * time.Millisecond
	drv, f := testDriver(t, cfg)
	dev := testDevice(t, f)

	q, _ := dev.CreateCommandQueue(driver.CommandListDirect)
	alloc, _ := dev.CreateCommandAllocator(driver.CommandListDirect)
	list, _ := dev.CreateCommandList(driver.CommandListDirect, alloc)
	list.Close()
	q.ExecuteCommandLists(list)

	if err := alloc.Reset(); !errors.Is(err, ErrInvalidCall) {
		t.Errorf("Reset() with work in flight = %v, want ErrInvalidCall", err)
	}
	if len(drv.Violations()) == 0 {
		t.Error("reset with work in flight was not recorded as a violation")
	}

	fe, _ := dev.CreateFence(0)
	ev, _ := dev.CreateEvent()
	q.Signal(fe, 1)
	fe.SetEventOnCompletion(1, ev)
	ev.Wait()
	ev.Close()
	list.Release()
	alloc.Release()
	fe.Release()
	q.Release()
	dev.Release()
}

func TestCommandListProtocol(t *testing.T) {
	drv, f := testDriver(t, DefaultConfig())
	dev := testDevice(t, f)
	alloc, _ := dev.CreateCommandAllocator(driver.CommandListDirect)
	list, _ := dev.CreateCommandList(driver.CommandListDirect, alloc)
	t.Cleanup(func() {
		list.Release()
		alloc.Release()
		dev.Release()
	})

	if err := list.Reset(alloc); !errors.Is(err, ErrInvalidCall) {
		t.Errorf("Reset() of a recording list = %v, want ErrInvalidCall", err)
	}
	if err := list.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := list.Close(); !errors.Is(err, ErrInvalidCall) {
		t.Errorf("second Close() = %v, want ErrInvalidCall", err)
	}
	list.RSSetViewports(driver.Viewport{Width: 1, Height: 1})
	v := drv.Violations()
	if len(v) != 1 || !strings.Contains(v[0].Error(), "closed command list") {
		t.Errorf("Violations() = %v, want one closed-list violation", v)
	}
}

func TestDoubleRelease(t *testing.T) {
	drv, f := testDriver(t, DefaultConfig())
	dev := testDevice(t, f)
	fe, _ := dev.CreateFence(0)
	fe.Release()
	fe.Release()
	dev.Release()

	v := drv.Violations()
	if len(v) != 1 || !strings.Contains(v[0].Error(), "released twice") {
		t.Errorf("Violations() = %v, want one double release", v)
	}
}

func TestDeviceReleasedWithChildren(t *testing.T) {
	drv, f := testDriver(t, DefaultConfig())
	dev := testDevice(t, f)
	fe, _ := dev.CreateFence(0)
	dev.Release()
	fe.Release()

	v := drv.Violations()
	if len(v) != 1 || !strings.Contains(v[0].Error(), "live children") {
		t.Errorf("Violations() = %v, want one leaked child", v)
	}
}

func TestMultisampleQualityLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MSAAQualityLevels = 3
	_, f := testDriver(t, cfg)
	dev := testDevice(t, f)
	t.Cleanup(dev.Release)

	tests := []struct {
		samples uint32
		want    uint32
	}{
		{1, 1},
		{4, 3},
		{8, 0},
	}
	for _, tt := range tests {
		got, err := dev.MultisampleQualityLevels(gputypes.TextureFormatRGBA8Unorm, tt.samples)
		if err != nil || got != tt.want {
			t.Errorf("MultisampleQualityLevels(%d) = %d, %v, want %d", tt.samples, got, err, tt.want)
		}
	}
}

func TestDisplayModesFilterFormat(t *testing.T) {
	cfg := Config{Adapters: []AdapterSpec{{Name: "gpu", Outputs: []OutputSpec{DefaultOutput("D")}}}}
	_, f := testDriver(t, cfg)
	a, _ := f.EnumAdapter(0)
	defer a.Release()
	o, err := a.EnumOutput(0)
	if err != nil {
		t.Fatalf("EnumOutput(0) error = %v", err)
	}
	defer o.Release()

	modes, _ := o.DisplayModes(gputypes.TextureFormatRGBA8Unorm)
	if len(modes) != 5 {
		t.Fatalf("DisplayModes(RGBA8) = %d modes, want 5", len(modes))
	}
	for _, m := range modes {
		if m.Format != gputypes.TextureFormatRGBA8Unorm {
			t.Errorf("mode %+v has the wrong format", m)
		}
	}
	if _, err := a.EnumOutput(1); !errors.Is(err, driver.ErrNotFound) {
		t.Errorf("EnumOutput(1) error = %v, want ErrNotFound", err)
	}
}
