package control

import (
	"fmt"
	"sync"
)

// LogLevel represents the severity of a lifecycle message.
type LogLevel int32

// Log level constants
const (
	LogQuiet   LogLevel = -8 // Print no output
	LogPanic   LogLevel = 0  // Invariant violated, about to panic
	LogError   LogLevel = 16 // Misuse that was rejected
	LogWarning LogLevel = 24 // Something unexpected but recovery possible
	LogInfo    LogLevel = 32 // Standard information
	LogDebug   LogLevel = 48 // Per-block lifecycle events
	LogTrace   LogLevel = 56 // Per-counter events
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch {
	case l <= LogQuiet:
		return "quiet"
	case l <= LogPanic:
		return "panic"
	case l <= LogError:
		return "error"
	case l <= LogWarning:
		return "warning"
	case l <= LogInfo:
		return "info"
	case l <= LogDebug:
		return "debug"
	default:
		return "trace"
	}
}

// LogCallback is called for each lifecycle message at or below the
// configured level.
type LogCallback func(level LogLevel, message string)

var (
	logMu       sync.RWMutex
	logCallback LogCallback
	logLevel    = LogInfo
)

// SetLogLevel sets the maximum level passed to the callback.
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel = level
}

// SetLogCallback installs a handler for lifecycle messages.
// Pass nil to disable logging.
func SetLogCallback(cb LogCallback) {
	logMu.Lock()
	defer logMu.Unlock()
	logCallback = cb
}

func logEnabled(level LogLevel) (LogCallback, bool) {
	logMu.RLock()
	cb, max := logCallback, logLevel
	logMu.RUnlock()
	if cb == nil || level > max || max <= LogQuiet {
		return nil, false
	}
	return cb, true
}

// Logf formats a message and passes it to the callback if level is enabled.
func Logf(level LogLevel, format string, args ...any) {
	logf(level, format, args...)
}

func logf(level LogLevel, format string, args ...any) {
	cb, ok := logEnabled(level)
	if !ok {
		return
	}
	cb(level, fmt.Sprintf(format, args...))
}
