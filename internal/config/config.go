package config

import (
	"sync"
	"time"
)

// MeshSettings holds the tunables for mesh (re)generation.
type MeshSettings struct {
	mu sync.RWMutex

	frameBudget        time.Duration // scheduler slice per frame
	placeholderReserve int           // trailing placeholder slots per bucket
	offsetGrid         float64       // mesh offset snaps to multiples of this
	recenterBand       float64       // recenter when focus leaves this band around the offset
	glitchDistance     float64       // beyond this delta a linear shift loses precision
	voidWireframe      bool          // render voids as outlines instead of filled quads
}

var globalMeshSettings = &MeshSettings{
	frameBudget:        4 * time.Millisecond,
	placeholderReserve: 8,
	offsetGrid:         10_000,
	recenterBand:       10_000,
	glitchDistance:     1_000_000,
}

// GetFrameBudget returns the per-frame time slice for chunked mesh builds.
func GetFrameBudget() time.Duration {
	globalMeshSettings.mu.RLock()
	defer globalMeshSettings.mu.RUnlock()
	return globalMeshSettings.frameBudget
}

// SetFrameBudget sets the per-frame time slice for chunked mesh builds.
func SetFrameBudget(d time.Duration) {
	globalMeshSettings.mu.Lock()
	defer globalMeshSettings.mu.Unlock()

	// Clamp to reasonable values
	if d < 500*time.Microsecond {
		d = 500 * time.Microsecond
	}
	if d > 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	globalMeshSettings.frameBudget = d
}

// GetPlaceholderReserve returns the number of trailing placeholder slots
// reserved per type bucket on regeneration.
func GetPlaceholderReserve() int {
	globalMeshSettings.mu.RLock()
	defer globalMeshSettings.mu.RUnlock()
	return globalMeshSettings.placeholderReserve
}

// SetPlaceholderReserve sets the per-bucket placeholder reservation.
func SetPlaceholderReserve(n int) {
	globalMeshSettings.mu.Lock()
	defer globalMeshSettings.mu.Unlock()

	if n < 1 {
		n = 1
	}
	if n > 256 {
		n = 256
	}
	globalMeshSettings.placeholderReserve = n
}

// GetOffsetGrid returns the grid size the mesh offset snaps to.
func GetOffsetGrid() float64 {
	globalMeshSettings.mu.RLock()
	defer globalMeshSettings.mu.RUnlock()
	return globalMeshSettings.offsetGrid
}

// GetRecenterBand returns how far the focus may drift from the current
// offset before a recenter is requested.
func GetRecenterBand() float64 {
	globalMeshSettings.mu.RLock()
	defer globalMeshSettings.mu.RUnlock()
	return globalMeshSettings.recenterBand
}

// GetGlitchDistance returns the largest offset delta a linear shift may
// bridge before float32 cancellation makes it unsafe.
func GetGlitchDistance() float64 {
	globalMeshSettings.mu.RLock()
	defer globalMeshSettings.mu.RUnlock()
	return globalMeshSettings.glitchDistance
}

// GetVoidWireframe reports whether void squares render as outlines.
func GetVoidWireframe() bool {
	globalMeshSettings.mu.RLock()
	defer globalMeshSettings.mu.RUnlock()
	return globalMeshSettings.voidWireframe
}

// SetVoidWireframe toggles outline rendering for void squares. Takes effect
// on the next void mesh regeneration.
func SetVoidWireframe(on bool) {
	globalMeshSettings.mu.Lock()
	defer globalMeshSettings.mu.Unlock()
	globalMeshSettings.voidWireframe = on
}
