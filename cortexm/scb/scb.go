// Package scb provides the System Control Block and the debug registers of
// ARMv7-M cores, and implements fault.Platform on top of them.
package scb

import (
	"unsafe"

	"github.com/clktmr/postmortem/cortexm"
	"github.com/clktmr/postmortem/fault"
	"github.com/clktmr/postmortem/mmio"
)

const (
	BaseAddr      uintptr = 0xE000_ED00
	DebugBaseAddr uintptr = 0xE000_EDF0
)

// Registers is the System Control Block.
type Registers struct {
	CPUID mmio.U32
	ICSR  mmio.U32
	VTOR  mmio.U32
	AIRCR mmio.U32
	SCR   mmio.U32
	CCR   mmio.U32
	SHPR  [3]mmio.U32
	SHCSR mmio.U32
	CFSR  mmio.U32
	HFSR  mmio.U32
	DFSR  mmio.U32
	MMFAR mmio.U32
	BFAR  mmio.U32
	AFSR  mmio.U32
}

type dhcsr uint32

const (
	DHCSR_C_DEBUGEN dhcsr = 1 << 0
	DHCSR_C_HALT    dhcsr = 1 << 1
	DHCSR_S_HALT    dhcsr = 1 << 17
)

// DebugRegisters is the core debug register block.
type DebugRegisters struct {
	DHCSR mmio.R32[dhcsr]
	DCRSR mmio.U32
	DCRDR mmio.U32
	DEMCR mmio.U32
}

const (
	aircrVectKey     = 0x05FA << 16
	aircrSysResetReq = 1 << 2
)

// Platform implements fault.Platform for ARMv7-M.
type Platform struct {
	SCB   *Registers
	Debug *DebugRegisters
}

var _ fault.Platform = (*Platform)(nil)

// Default returns the registers of the running core.
func Default() *Platform {
	return &Platform{
		SCB:   (*Registers)(unsafe.Pointer(BaseAddr)),
		Debug: (*DebugRegisters)(unsafe.Pointer(DebugBaseAddr)),
	}
}

//go:nosplit
func (p *Platform) VectorTableBase() uintptr {
	return uintptr(p.SCB.VTOR.Load())
}

//go:nosplit
func (p *Platform) SetVectorTableBase(addr uintptr) {
	p.SCB.VTOR.Store(uint32(addr))
	cortexm.Barrier()
}

//go:nosplit
func (p *Platform) DebuggerAttached() bool {
	return p.Debug.DHCSR.LoadBits(DHCSR_C_DEBUGEN) != 0
}

//go:nosplit
func (p *Platform) Breakpoint() {
	cortexm.BKPT()
}

//go:nosplit
func (p *Platform) FaultStatus() fault.Status {
	return fault.Status{
		CFSR: p.SCB.CFSR.Load(),
		HFSR: p.SCB.HFSR.Load(),
		DFSR: p.SCB.DFSR.Load(),
		AFSR: p.SCB.AFSR.Load(),
		MMAR: p.SCB.MMFAR.Load(),
		BFAR: p.SCB.BFAR.Load(),
	}
}

// Reset requests a system reset through AIRCR, keeping the priority grouping.
//
//go:nosplit
func (p *Platform) Reset() {
	cortexm.DSB()
	p.SCB.AIRCR.Store(p.SCB.AIRCR.Load()&0xffff | aircrVectKey | aircrSysResetReq)
	cortexm.DSB()
}
