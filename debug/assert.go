//go:build debug

package debug

// Guard expensive assertions with `if debug.Enabled {...}`, otherwise they
// stay in release builds.
const Enabled = true

func Assert(b bool, message string) {
	if !b {
		panic(message)
	}
}

func AssertAligned(addr, align uintptr, message string) {
	if addr&(align-1) != 0 {
		panic(message)
	}
}
