package backend

import "github.com/gogpu/gpucontext"

// Adapter is a snapshot of a graphics adapter taken at enumeration time.
// Index 0 is always the preferred adapter.
type Adapter struct {
	Index int
	Name  string
	Type  gpucontext.AdapterType
}

// Output is a display attached to an adapter.
type Output struct {
	// Index is the ordinal within the owning adapter.
	Index      int
	DeviceName string
}

// DisplayMode is a resolution and refresh rate supported by an output.
type DisplayMode struct {
	Index  int
	Width  int
	Height int
	// RefreshRate is in whole hertz, truncated.
	RefreshRate int
}
