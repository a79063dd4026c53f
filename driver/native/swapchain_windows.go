//go:build windows && !(js && wasm)

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/dx12/d3d12"
	"github.com/gogpu/wgpu/hal/dx12/dxgi"

	"github.com/gogpu/syren/driver"
)

type swapChain struct {
	raw *dxgi.IDXGISwapChain1
}

func (s *swapChain) Buffer(index uint32) (driver.Resource, error) {
	ptr, err := s.raw.GetBuffer(index, &dxgi.IID_ID3D12Resource)
	if err != nil {
		return nil, fmt.Errorf("GetBuffer(%d): %w", index, err)
	}
	return &resource{raw: (*d3d12.ID3D12Resource)(ptr)}, nil
}

func (s *swapChain) ResizeBuffers(count, width, height uint32, format gputypes.TextureFormat, flags driver.SwapChainFlags) error {
	f, ok := viewFormat(format)
	if !ok {
		return fmt.Errorf("native: unsupported swap chain format %v", format)
	}
	if err := s.raw.ResizeBuffers(count, width, height, dxgi.DXGI_FORMAT(f), uint32(flags)); err != nil {
		return fmt.Errorf("ResizeBuffers: %w", err)
	}
	return nil
}

func (s *swapChain) Present(syncInterval, flags uint32) error {
	if err := s.raw.Present(syncInterval, flags); err != nil {
		return fmt.Errorf("Present: %w", err)
	}
	return nil
}

func (s *swapChain) Release() { s.raw.Release() }
