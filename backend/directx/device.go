package directx

import (
	"fmt"

	"github.com/gogpu/syren"
	"github.com/gogpu/syren/backend"
	"github.com/gogpu/syren/driver"
)

// msaaSamples is the sample count CheckMultisampling queries.
const msaaSamples = 4

// initialiseFactory opens the driver factory the backend keeps until Destroy.
func (b *Backend) initialiseFactory() backend.Result {
	factory, err := b.opts.open()
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Could not create DXGI Factory.", err)
	}
	b.factory = factory
	return backend.Success("Successfully created the DXGI Factory.")
}

// initialiseDevice creates the device on the preferred adapter. When the
// hardware rejects the feature level it retries once on the WARP adapter.
func (b *Backend) initialiseDevice() backend.Result {
	log := syren.Logger()

	hwErr := b.createDevice(func() (driver.Adapter, error) { return b.factory.EnumAdapter(0) })
	if hwErr == nil {
		return backend.Success("Successfully created the D3D12 device.")
	}
	log.Info("directx: hardware device unavailable, falling back to WARP", "err", hwErr)

	var warpAdapterErr error
	err := b.createDevice(func() (driver.Adapter, error) {
		a, err := b.factory.WarpAdapter()
		warpAdapterErr = err
		return a, err
	})
	switch {
	case warpAdapterErr != nil:
		return backend.Fail(backend.ErrCreation, "Failed to create the warp adapter.", warpAdapterErr)
	case err != nil:
		return backend.Fail(backend.ErrCreation, "Failed to create the D3D12 device.",
			fmt.Errorf("hardware: %w; warp: %w", hwErr, err))
	}
	b.warp = true
	return backend.Success("Successfully created the D3D12 device using a warp adapter.")
}

// createDevice creates the device on the adapter pick returns. The adapter
// is only needed for creation and is released before returning.
func (b *Backend) createDevice(pick func() (driver.Adapter, error)) error {
	adapter, err := pick()
	if err != nil {
		return err
	}
	defer adapter.Release()

	device, err := b.factory.CreateDevice(adapter, b.opts.featureLevel)
	if err != nil {
		return err
	}
	if desc, err := adapter.Desc(); err == nil {
		syren.Logger().Info("directx: device created", "adapter", desc.Description, "type", desc.DeviceType)
	}
	b.device = device
	return nil
}

// initialiseFence creates the frame fence at zero.
func (b *Backend) initialiseFence() backend.Result {
	fence, err := b.device.CreateFence(0)
	if err != nil {
		return backend.Fail(backend.ErrCreation, "Failed to create a fence object.", err)
	}
	b.fence = fence
	b.fenceValue = 0
	return backend.Success("Successfully created a fence object.")
}

// cacheDescriptorSizes caches the descriptor increment sizes, which are
// fixed for the lifetime of the device.
func (b *Backend) cacheDescriptorSizes() {
	b.rtvSize = b.device.DescriptorHandleIncrementSize(driver.DescriptorHeapRTV)
	b.dsvSize = b.device.DescriptorHandleIncrementSize(driver.DescriptorHeapDSV)
	b.cbvSrvUavSize = b.device.DescriptorHandleIncrementSize(driver.DescriptorHeapCBVSRVUAV)
	syren.Logger().Debug("directx: descriptor sizes",
		"rtv", b.rtvSize, "dsv", b.dsvSize, "cbv_srv_uav", b.cbvSrvUavSize)
}

// CheckMultisampling reports whether the back buffer format supports 4x
// MSAA. An unsupported format is a recoverable failure wrapping
// backend.ErrFeatureUnsupported; the caller picks the fallback.
func (b *Backend) CheckMultisampling() (qualityLevels uint32, r backend.Result) {
	if b.device == nil {
		return 0, backend.Fail(backend.ErrNotInitialized, "The D3D12 device has not been created.", nil)
	}
	levels, err := b.device.MultisampleQualityLevels(b.opts.bufferFormat, msaaSamples)
	if err != nil {
		return 0, backend.Fail(backend.ErrFeatureUnsupported, "Failed to check the MSAA quality level.", err)
	}
	if levels == 0 {
		return 0, backend.Fail(backend.ErrFeatureUnsupported, "Unexpected MSAA quality level.", nil)
	}
	return levels, backend.Success(fmt.Sprintf("MSAA %dx supports %d quality levels.", msaaSamples, levels))
}
