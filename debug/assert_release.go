//go:build !debug

// Package debug provides assertions for contract violations in start-up code.
// They are enabled with the debug build tag and compile to nothing otherwise.
//
// Never use them on the fault path, a panic there has nowhere to go.
package debug

// Guard expensive assertions with `if debug.Enabled {...}`, otherwise they
// stay in release builds.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}

// AssertAligned panics if addr isn't a multiple of align, which must be a
// power of two.
func AssertAligned(addr, align uintptr, message string) {}
