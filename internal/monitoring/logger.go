// Package monitoring holds the diagnostic logger and the per-session
// rejection counters shared by the HUD processing layers.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that prepends "[component] " to every message
// and forwards to the current package logger at call time.
func Prefixed(component string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf("["+component+"] "+format, v...)
	}
}
