// Package syren is the engine-facing entry point of the Syren renderer.
//
// # Overview
//
// A Renderer reads the graphics API from render.cfg, creates the backend
// registered for it, and forwards the window lifecycle: Initialise once,
// OnResize whenever the client area changes, Draw every frame, and
// Destroy at shutdown. Every operation reports a backend.Result, a
// tri-state outcome (fail, weak success, strong success) with a
// human-readable message.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/syren"
//	    "github.com/gogpu/syren/backend"
//	    _ "github.com/gogpu/syren/backend/directx" // register DX12
//	)
//
//	r := syren.New(backend.Target{Window: hwnd, Width: 1280, Height: 720})
//	if res := r.Initialise(ctx); !res.OK() {
//	    log.Fatal(res.Message)
//	}
//	defer r.Destroy(ctx)
//
//	for running {
//	    r.Update(ctx)
//	    r.Draw(ctx)
//	}
//
// # Configuration
//
// render.cfg holds "key: value" lines. The api entry selects directx,
// opengl or vulkan, compared case-insensitively:
//
//	api: directx
//
// A missing file or a missing entry falls back to Direct3D 12. An unknown
// API name makes Initialise fail.
//
// # Architecture
//
// The module is organized into:
//   - syren: Renderer facade, config loader, logger
//   - backend: GraphicsBackend interface, Result, backend registry
//   - backend/directx: the Direct3D 12 backend
//   - driver: the D3D12 object model the backend is written against
//   - driver/native: Windows implementation over gogpu/wgpu hal/dx12
//   - driver/emulated: simulated GPU for tests and headless runs
package syren
