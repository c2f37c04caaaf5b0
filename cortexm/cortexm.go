// Package cortexm provides the few instructions of the ARMv7-M architecture
// that have no Go equivalent.
//
// On other architectures the functions are no-ops, so code using them can be
// tested on the host.
package cortexm

// Barrier orders all preceding memory accesses before any following ones and
// flushes the pipeline. Use it after disabling an interrupt in the NVIC or
// after changing VTOR, when the change must take effect before the next
// instruction.
//
//go:nosplit
func Barrier() {
	DSB()
	ISB()
}
