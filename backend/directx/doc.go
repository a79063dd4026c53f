// Package directx implements the Direct3D 12 graphics backend.
//
// Importing the package registers the backend for gputypes.BackendDX12:
//
//	import _ "github.com/gogpu/syren/backend/directx"
//
// # Lifecycle
//
// A Backend moves from StateUninitialized to StateInitialized through
// Initialise, which creates in order the DXGI factory, the device (falling
// back to the WARP adapter when the hardware refuses), the fence, the
// command queue, allocator and list, the swap chain, the descriptor heaps,
// and finally the size-dependent surface. A failed Initialise leaves the
// backend in StateFailed; it must be destroyed, not retried.
//
// Render and OnResize are legal from StateInitialized, StateRendering and
// StateResizing. Destroy is legal everywhere.
//
// # Synchronization
//
// There is a single command allocator and a single command list. Render
// flushes the queue at the end of every frame, so at most one frame is in
// flight and the allocator can be reset at the top of the next one. Flush
// blocks on an OS event with no timeout.
//
// # Drivers
//
// The backend talks to the platform through the driver package. The
// default is driver/native, the real D3D12 runtime on Windows. Tests and
// headless tools pass WithDriver with driver/emulated.
package directx
