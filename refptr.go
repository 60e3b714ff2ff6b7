// Package refptr provides reference-counted handles for values whose
// release must happen at a precise moment: C heap memory, arena slots,
// descriptors, or anything else the garbage collector cannot clean up on
// its own.
//
// A Shared is an owning handle. Any number of Shared handles may co-own one
// pointee; the pointee's Deleter runs exactly once, when the last of them is
// reset. A Weak observes a pointee without owning it and can be upgraded
// with Lock while the pointee is still alive.
//
//	sp := refptr.Make(Conn{...})
//	w := refptr.NewWeak(sp)
//	if s := w.Lock(); s.Valid() {
//		use(s.Get())
//		s.Reset()
//	}
//	sp.Reset() // Conn released here
//	w.Reset()  // control block released here
//
// Counts are maintained with atomic operations only; no handle operation
// blocks. For C heap and arena backed pointees see packages cmem and arena.
package refptr

import (
	"github.com/obinnaokechukwu/refptr/control"
)

// Re-export the lifecycle logging types for convenience
type (
	// LogLevel represents the severity of a lifecycle message.
	LogLevel = control.LogLevel

	// LogCallback receives lifecycle messages.
	LogCallback = control.LogCallback

	// Usage reports lifecycle totals.
	Usage = control.Usage
)

// Log level constants
const (
	LogQuiet   = control.LogQuiet
	LogPanic   = control.LogPanic
	LogError   = control.LogError
	LogWarning = control.LogWarning
	LogInfo    = control.LogInfo
	LogDebug   = control.LogDebug
	LogTrace   = control.LogTrace
)

// SetLogLevel sets the maximum level delivered to the log callback.
func SetLogLevel(level LogLevel) {
	control.SetLogLevel(level)
}

// SetLogCallback installs a handler for lifecycle messages. Pass nil to
// disable logging.
func SetLogCallback(cb LogCallback) {
	control.SetLogCallback(cb)
}

// SetTracking enables or disables registration of live control blocks.
// It can also be enabled at startup with REFPTR_TRACK_BLOCKS=1.
func SetTracking(on bool) {
	control.SetTracking(on)
}

// LiveBlocks returns the number of tracked control blocks not yet freed.
// Only blocks created while tracking was enabled are counted.
func LiveBlocks() int {
	return control.TrackedBlocks()
}

// LiveBlockIDs returns the tracking ids of control blocks not yet freed, in
// creation order. Compare against Shared.BlockID to find what leaked.
func LiveBlockIDs() []uintptr {
	return control.TrackedIDs()
}

// Stats returns process-wide lifecycle totals.
func Stats() Usage {
	return control.Stats()
}
