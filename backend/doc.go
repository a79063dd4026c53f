// Package backend provides the pluggable graphics API backend abstraction.
//
// A backend brings up a GPU device for one window, owns its swap chain and
// drives the per-frame render, present and synchronize cycle. The engine
// facade (package syren) talks to it only through the GraphicsBackend
// interface, so a test double or another graphics API can be substituted
// without touching the facade.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime
// by graphics API. The Direct3D 12 backend registers itself on import:
//
//	import _ "github.com/gogpu/syren/backend/directx"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// the backend of a specific API:
//
//	target := backend.Target{Window: hwnd, Width: 800, Height: 600}
//
//	// Get the default (best available) backend
//	b := backend.Default(target)
//
//	// Or request a specific API
//	b := backend.Get(gputypes.BackendDX12, target)
//
// # Results
//
// Operations never panic across the backend boundary. Each returns a
// Result with a Status (fail, weak-success or strong-success) and a
// diagnostic message that carries the platform's error text:
//
//	if r := b.Initialise(ctx); !r.OK() {
//		log.Fatal(r.Message)
//	}
//	defer b.Destroy(ctx)
//
//	for running {
//		if r := b.Render(ctx); !r.OK() {
//			log.Print(r.Message)
//		}
//	}
package backend
