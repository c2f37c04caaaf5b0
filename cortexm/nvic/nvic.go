// Package nvic provides access to the Nested Vectored Interrupt Controller.
package nvic

import (
	"unsafe"

	"github.com/clktmr/postmortem/mmio"
)

const BaseAddr uintptr = 0xE000_E100

// Registers is the NVIC register block starting at ISER0.
type Registers struct {
	ISER [16]mmio.U32
	_    [16]uint32
	ICER [16]mmio.U32
	_    [16]uint32
	ISPR [16]mmio.U32
	_    [16]uint32
	ICPR [16]mmio.U32
	_    [16]uint32
	IABR [16]mmio.U32
}

// NVIC returns the interrupt controller of the running core.
func NVIC() *Registers {
	return (*Registers)(unsafe.Pointer(BaseAddr))
}

// IRQ is an external interrupt number, i.e. the exception number minus 16.
type IRQ int

// Enable enables irq in r.
//
//go:nosplit
func (irq IRQ) Enable(r *Registers) {
	r.ISER[irq>>5].Store(1 << (irq & 31))
}

// Disable disables irq in r. The write may take a few cycles to take effect,
// see cortexm.Barrier.
//
//go:nosplit
func (irq IRQ) Disable(r *Registers) {
	r.ICER[irq>>5].Store(1 << (irq & 31))
}

// Enabled reports whether irq is enabled in r.
//
//go:nosplit
func (irq IRQ) Enabled(r *Registers) bool {
	return r.ISER[irq>>5].LoadBits(1<<(irq&31)) != 0
}
