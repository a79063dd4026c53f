package backend

import (
	"sync"

	"github.com/gogpu/gputypes"
)

// Factory creates a backend instance rendering into target.
type Factory func(target Target) GraphicsBackend

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[gputypes.Backend]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []gputypes.Backend{gputypes.BackendDX12, gputypes.BackendVulkan, gputypes.BackendGL}
)

// Register registers a backend factory for the given graphics API.
// This is typically called from init() functions in backend packages.
// If a backend for the API is already registered, it will be replaced.
func Register(api gputypes.Backend, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[api] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(api gputypes.Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, api)
}

// Available returns the graphics APIs with a registered backend, in
// priority order.
func Available() []gputypes.Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	apis := make([]gputypes.Backend, 0, len(backends))
	for _, api := range backendPriority {
		if _, ok := backends[api]; ok {
			apis = append(apis, api)
		}
	}
	return apis
}

// IsRegistered checks if a backend is registered for the given API.
func IsRegistered(api gputypes.Backend) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[api]
	return ok
}

// Get returns a backend instance for the given API.
// Returns nil if no backend is registered for it.
func Get(api gputypes.Backend, target Target) GraphicsBackend {
	registryMu.RLock()
	factory, ok := backends[api]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory(target)
}

// Default returns the best available backend based on priority.
// Priority order: DX12 > Vulkan > GL.
// Returns nil if no backends are registered.
func Default(target Target) GraphicsBackend {
	registryMu.RLock()
	factories := make([]Factory, 0, len(backendPriority))
	for _, api := range backendPriority {
		if factory, ok := backends[api]; ok {
			factories = append(factories, factory)
		}
	}
	registryMu.RUnlock()

	for _, factory := range factories {
		if b := factory(target); b != nil {
			return b
		}
	}
	return nil
}
