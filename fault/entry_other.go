//go:build !thumb

package fault

// There are no exception entries off target. Tests set Config.Trampolines and
// call the Go trampolines directly.
func trampolines() (t [numCauses]uint32) { return }

// Nothing resets the host, Report returns instead.
func hang() {}
