// Package fault reports unrecoverable CPU exceptions and resets the system.
//
// InstallHooks redirects the HardFault, MemManage, BusFault and UsageFault
// vectors to trampolines of this package. When one of them fires, the saved
// registers and the fault status registers are written to the minimal serial
// and the core is reset. There is no way back to the faulting code.
//
// All state the handler needs is set up before the vectors are patched. The
// handler itself doesn't allocate and doesn't depend on interrupts.
package fault

import (
	"sync/atomic"
	"unsafe"

	"github.com/clktmr/postmortem/minserial"
	"github.com/clktmr/postmortem/vectab"
)

// Platform is the hardware the handler operates on.
type Platform interface {
	vectab.Base

	// DebuggerAttached reports whether a debugger is halting the core.
	DebuggerAttached() bool

	// Breakpoint hands control to the debugger.
	Breakpoint()

	// FaultStatus reads the fault status registers.
	FaultStatus() Status

	// Reset requests a system reset. It might take effect with a delay.
	Reset()
}

// Config configures InstallHooks.
type Config struct {
	Vectors vectab.Config

	// Backtrace is called with the stack pointer of the faulting code and
	// its LR and PC, to unwind from the fault site. It should write to the
	// minimal serial. It runs in handler mode and must return without
	// panicking or allocating.
	Backtrace func(sp uintptr, lr, pc uint32)

	// LastResort is called after the report, right before the reset. The
	// same restrictions as for Backtrace apply, in particular it must
	// return for the reset to happen.
	LastResort func()

	// Trampolines overrides the handler addresses patched into the vector
	// table, indexed by Cause. Defaults to this package's exception entries
	// on the target.
	Trampolines [numCauses]uint32
}

// Phase is the state of the fault handler.
type Phase uint32

const (
	Armed Phase = iota
	Reporting
	Resetting
)

var (
	platform   Platform
	backtrace  func(sp uintptr, lr, pc uint32)
	lastResort func()
	phase      atomic.Uint32
)

// CurrentPhase returns the state of the fault handler.
func CurrentPhase() Phase {
	return Phase(phase.Load())
}

// InstallHooks relocates the vector table and routes the four configurable
// faults to Report. Call it once during start-up. If it fails, the original
// vector table and the default fault handling stay in place.
func InstallHooks(p Platform, cfg *Config) error {
	tramp := cfg.Trampolines
	if tramp == ([numCauses]uint32{}) {
		tramp = trampolines()
	}

	platform = p
	backtrace = cfg.Backtrace
	lastResort = cfg.LastResort
	phase.Store(uint32(Armed))

	return vectab.Relocate(p, &cfg.Vectors,
		vectab.Patch{Index: vectab.HardFault, Addr: tramp[Hard]},
		vectab.Patch{Index: vectab.MemManageFault, Addr: tramp[Mem]},
		vectab.Patch{Index: vectab.BusFault, Addr: tramp[Bus]},
		vectab.Patch{Index: vectab.UsageFault, Addr: tramp[Usage]},
	)
}

// EXC_RETURN bit selecting the process stack.
const excReturnPSP = 1 << 2

// Enter is the common part of the trampolines. It picks the stack the core
// pushed the frame to and reports.
//
//go:nosplit
func Enter(cause Cause, excReturn uint32, msp, psp uintptr) {
	sp := msp
	if excReturn&excReturnPSP != 0 {
		sp = psp
	}
	Report(sp, excReturn, cause)
}

//go:nosplit
func HardFault(excReturn uint32, msp, psp uintptr) { Enter(Hard, excReturn, msp, psp) }

//go:nosplit
func MemManageFault(excReturn uint32, msp, psp uintptr) { Enter(Mem, excReturn, msp, psp) }

//go:nosplit
func BusFault(excReturn uint32, msp, psp uintptr) { Enter(Bus, excReturn, msp, psp) }

//go:nosplit
func UsageFault(excReturn uint32, msp, psp uintptr) { Enter(Usage, excReturn, msp, psp) }

// Report writes the frame at sp and the fault status registers to the minimal
// serial and resets the system. If a debugger is attached, it breaks instead
// and returns. Resuming from the breakpoint returns from the exception and
// executes the faulting instruction again, which faults again.
//
//go:nosplit
func Report(sp uintptr, excReturn uint32, cause Cause) {
	p := platform
	if p.DebuggerAttached() {
		p.Breakpoint()
		return
	}
	phase.Store(uint32(Reporting))

	// The fault might have hit the serial driver in the middle of a
	// transfer.
	minserial.Init()

	frame := (*Frame)(unsafe.Pointer(sp))
	minserial.TX("\n\n## Software Fault detected ##\n")
	minserial.TX("Cause: ")
	minserial.TX(cause.String())
	minserial.Emit('\n')

	field("R0   : ", frame.R0)
	field("R1   : ", frame.R1)
	field("R2   : ", frame.R2)
	field("R3   : ", frame.R3)
	field("R12  : ", frame.R12)
	field("LR   : ", frame.LR)
	field("PC   : ", frame.PC)
	field("PSR  : ", frame.PSR)

	status := p.FaultStatus()
	field("CFSR : ", status.CFSR)
	field("HFSR : ", status.HFSR)
	field("DFSR : ", status.DFSR)
	field("AFSR : ", status.AFSR)
	field("MMAR : ", status.MMAR)
	field("BFAR : ", status.BFAR)

	field("ExcLR: ", excReturn)
	field("ExcSP: ", uint32(sp))

	if backtrace != nil {
		backtrace(sp+FrameSize, frame.LR, frame.PC)
	}
	if lastResort != nil {
		lastResort()
	}

	phase.Store(uint32(Resetting))
	p.SetVectorTableBase(0) // boot with the original table
	p.Reset()

	hang()
}

//go:nosplit
func field(label string, v uint32) {
	minserial.TX(label)
	minserial.TXHex(v)
	minserial.Emit('\n')
}
