// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about space resolution and graph mutation.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the space graph free of observability frameworks
//   - Allows different backends (see the prom subpackage for Prometheus)
//
// Hooks are called on the hot path of every locate, once or more per rendered
// frame. Implementations must be cheap and must never block.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLocateHooks(prom.NewHooks(prometheus.DefaultRegisterer))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	// ... resolve ...
//	observability.Locate().OnLocate("space", steps, uint32(rel.Flags), time.Since(start))
package observability

import (
	"sync"
	"time"
)

// =============================================================================
// Locate Hooks
// =============================================================================

// LocateHooks receives events from space resolution.
type LocateHooks interface {
	// OnLocate records one resolved relation. kind is "space" or "device",
	// steps is the length of the composed chain and flags the raw relation
	// flags of the result.
	OnLocate(kind string, steps int, flags uint32, duration time.Duration)
}

// =============================================================================
// Graph Hooks
// =============================================================================

// GraphHooks receives events about graph mutation and usage.
type GraphHooks interface {
	// OnSpaceCreated records a new space node of the given kind.
	OnSpaceCreated(kind string)

	// OnSpaceDestroyed records a space node whose last reference was dropped.
	OnSpaceDestroyed(kind string)

	// OnBind records a device being bound to a space.
	OnBind(device string, replaced bool)

	// OnRefSpaceUsage records a reference space going in or out of use.
	OnRefSpaceUsage(space string, used bool)

	// OnRecenter records a recenter attempt; err is nil on success.
	OnRecenter(duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLocateHooks is a no-op implementation of LocateHooks.
type NoopLocateHooks struct{}

func (NoopLocateHooks) OnLocate(string, int, uint32, time.Duration) {}

// NoopGraphHooks is a no-op implementation of GraphHooks.
type NoopGraphHooks struct{}

func (NoopGraphHooks) OnSpaceCreated(string)           {}
func (NoopGraphHooks) OnSpaceDestroyed(string)         {}
func (NoopGraphHooks) OnBind(string, bool)             {}
func (NoopGraphHooks) OnRefSpaceUsage(string, bool)    {}
func (NoopGraphHooks) OnRecenter(time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	locateHooks LocateHooks = NoopLocateHooks{}
	graphHooks  GraphHooks  = NoopGraphHooks{}
	hooksMu     sync.RWMutex
)

// SetLocateHooks registers custom locate hooks.
// This should be called once at application startup before any locate calls.
func SetLocateHooks(h LocateHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		locateHooks = h
	}
}

// SetGraphHooks registers custom graph hooks.
// This should be called once at application startup before any graph is built.
func SetGraphHooks(h GraphHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		graphHooks = h
	}
}

// Locate returns the registered locate hooks.
func Locate() LocateHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return locateHooks
}

// Graph returns the registered graph hooks.
func Graph() GraphHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return graphHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	locateHooks = NoopLocateHooks{}
	graphHooks = NoopGraphHooks{}
}
