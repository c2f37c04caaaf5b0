// Package usart implements the minimal serial on the USART peripheral of STM32
// microcontrollers.
//
// The ordinary driver of the firmware owns the peripheral during normal
// operation. After a fault Begin takes it over no matter what state it's in.
package usart

import (
	"unsafe"

	"github.com/clktmr/postmortem/cortexm"
	"github.com/clktmr/postmortem/cortexm/nvic"
	"github.com/clktmr/postmortem/minserial"
	"github.com/clktmr/postmortem/mmio"
)

const DefaultBaudrate = 115200

// Base addresses on STM32F1.
const (
	USART1 uintptr = 0x4001_3800
	USART2 uintptr = 0x4000_4400
	USART3 uintptr = 0x4000_4800
)

type status uint32

const (
	statusRXNE status = 1 << 5
	statusTC   status = 1 << 6
	statusTXE  status = 1 << 7
)

type control uint32

const (
	controlRE control = 1 << 2
	controlTE control = 1 << 3
	controlUE control = 1 << 13
)

// Registers is the USART register block.
type Registers struct {
	SR   mmio.R32[status]
	DR   mmio.U32
	BRR  mmio.U32
	CR1  mmio.R32[control]
	CR2  mmio.U32
	CR3  mmio.U32
	GTPR mmio.U32
}

// At returns the register block at base.
func At(base uintptr) *Registers {
	return (*Registers)(unsafe.Pointer(base))
}

// Device describes a USART and how it's wired on the chip.
type Device struct {
	Regs *Registers

	// IRQ of the USART, disabled in NVIC by Begin.
	IRQ  nvic.IRQ
	NVIC *nvic.Registers

	// Clock is the RCC peripheral clock enable register of the USART,
	// ClockMask its enable bit.
	Clock     *mmio.U32
	ClockMask uint32

	// PClk is the frequency of the peripheral clock in Hz.
	PClk     uint32
	Baudrate uint32 // defaults to DefaultBaudrate

	// Watchdog is refreshed while waiting for the transmitter, if set.
	Watchdog func()
}

// Begin reinitializes the USART for polled transmission with 8 data bits, no
// parity and one stop bit.
//
//go:nosplit
func (d *Device) Begin() {
	d.IRQ.Disable(d.NVIC)
	cortexm.Barrier() // the handler must not run after this point

	// Cycling the clock aborts an ongoing transfer.
	d.Clock.ClearBits(d.ClockMask)
	d.Clock.SetBits(d.ClockMask)

	d.Regs.CR1.Store(0)
	d.Regs.CR2.Store(0) // 1 stop bit
	d.Regs.CR3.Store(0)

	baud := d.Baudrate
	if baud == 0 {
		baud = DefaultBaudrate
	}
	d.Regs.BRR.Store((d.PClk + baud/2) / baud)

	d.Regs.CR1.Store(controlTE | controlUE) // 8 bit, no parity
}

// TX writes c as soon as the transmit data register is empty.
//
//go:nosplit
func (d *Device) TX(c byte) {
	for d.Regs.SR.LoadBits(statusTXE) == 0 {
		if d.Watchdog != nil {
			d.Watchdog()
		}
	}
	d.Regs.DR.Store(uint32(c))
}

// Write implements io.Writer by polling. It can serve as a simple console
// before the ordinary driver is running.
func (d *Device) Write(p []byte) (int, error) {
	for _, c := range p {
		d.TX(c)
	}
	return len(p), nil
}

// Install makes d the minimal serial.
func Install(d *Device) {
	minserial.Install(d.Begin, d.TX)
}
