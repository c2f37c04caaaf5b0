//go:build thumb

package fault

import "reflect"

// Exception entries, see entry_thumb.s. The core jumps here directly, they
// must never be called from Go.
func hardFaultEntry()
func memManageFaultEntry()
func busFaultEntry()
func usageFaultEntry()

// Written by the exception entries before they branch to enter.
var (
	entryMSP   uintptr
	entryPSP   uintptr
	entryLR    uint32
	entryCause Cause
)

//go:nosplit
func enter() {
	Enter(entryCause, entryLR, entryMSP, entryPSP)
}

// hang is the terminal state if the reset didn't happen.
//
//go:nosplit
func hang() {
	for {
	}
}

func trampolines() (t [numCauses]uint32) {
	pc := func(f func()) uint32 {
		return uint32(reflect.ValueOf(f).Pointer()) | 1 // thumb state
	}
	t[Hard] = pc(hardFaultEntry)
	t[Mem] = pc(memManageFaultEntry)
	t[Bus] = pc(busFaultEntry)
	t[Usage] = pc(usageFaultEntry)
	return
}
