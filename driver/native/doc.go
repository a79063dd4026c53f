// Package native implements the driver interfaces over the Direct3D 12 and
// DXGI runtimes, using the bindings of gogpu/wgpu's hal/dx12.
//
// On platforms other than Windows, Open returns driver.ErrUnsupported.
package native
