package backend

import (
	"context"
	"errors"

	"github.com/gogpu/gputypes"
)

// Common backend errors. Results wrap one of these so callers can branch
// with errors.Is.
var (
	// ErrBackendNotAvailable is returned when no backend is registered for
	// the requested graphics API.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Initialise.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrInvalidState is returned when an operation is illegal in the
	// backend's current state.
	ErrInvalidState = errors.New("backend: invalid state")

	// ErrNotFound is returned when an adapter or output index does not resolve.
	ErrNotFound = errors.New("backend: not found")

	// ErrCreation is returned when the platform rejects the creation of an object.
	ErrCreation = errors.New("backend: creation failed")

	// ErrFeatureUnsupported is returned when a requested capability is unavailable.
	ErrFeatureUnsupported = errors.New("backend: feature unsupported")

	// ErrSync is returned when signaling or waiting on a fence fails.
	ErrSync = errors.New("backend: synchronization failed")

	// ErrFrame is returned when recording, submitting or presenting a frame fails.
	ErrFrame = errors.New("backend: frame submission failed")
)

// Target is the presentation target a backend renders into, supplied by
// the windowing collaborator.
type Target struct {
	// Window is the native window handle (HWND on Windows).
	Window uintptr

	// Width and Height are the client area size in physical pixels.
	Width  int
	Height int
}

// GraphicsBackend is the interface implemented by graphics API backends.
// The engine-facing facade drives it; it decides when to initialise,
// resize and render.
//
// Every operation reports a Result. A backend whose Initialise failed must
// be destroyed and discarded, never initialised again.
type GraphicsBackend interface {
	// Name returns the backend identifier (e.g., "directx").
	Name() string

	// API returns the graphics API the backend drives.
	API() gputypes.Backend

	// Initialise brings up the device, the command pipeline and the
	// presentation surface, in that order.
	Initialise(ctx context.Context) Result

	// OnResize recreates the size-dependent surface resources.
	OnResize(ctx context.Context, width, height int) Result

	// Render records, submits and presents one frame, then waits for the
	// GPU to retire it.
	Render(ctx context.Context) Result

	// Update advances per-frame engine state. It records no GPU work.
	Update(ctx context.Context) Result

	// Destroy waits for outstanding GPU work and releases every object.
	Destroy(ctx context.Context) Result

	// Adapters lists the graphics adapters, preferred first.
	Adapters() ([]Adapter, Result)

	// Outputs lists the displays attached to an adapter.
	Outputs(adapter int) ([]Output, Result)

	// DisplayModes lists the modes of an output.
	DisplayModes(adapter, output int) ([]DisplayMode, Result)
}
