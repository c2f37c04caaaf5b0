// Package uart implements the minimal serial on the UART of Atmel SAM3X
// microcontrollers, as found on the Arduino Due.
package uart

import (
	"unsafe"

	"github.com/clktmr/postmortem/cortexm"
	"github.com/clktmr/postmortem/cortexm/nvic"
	"github.com/clktmr/postmortem/minserial"
	"github.com/clktmr/postmortem/mmio"
)

const (
	BaseAddr        uintptr = 0x400E_0800
	PMCBaseAddr     uintptr = 0x400E_0600
	DefaultBaudrate         = 115200

	// ID is the peripheral identifier of the UART, used as its bit in the
	// PMC clock registers and as its IRQ.
	ID = 8
)

type command uint32

const (
	cmdRSTRX command = 1 << 2
	cmdRSTTX command = 1 << 3
	cmdRXEN  command = 1 << 4
	cmdRXDIS command = 1 << 5
	cmdTXEN  command = 1 << 6
	cmdTXDIS command = 1 << 7
)

type status uint32

const (
	statusRXRDY status = 1 << 0
	statusTXRDY status = 1 << 1
)

const (
	modeParNo  = 4 << 9
	modeChNorm = 0 << 14
	ptcrRXTDIS = 1 << 1
	ptcrTXTDIS = 1 << 9
)

// Registers is the UART register block including its DMA controller.
type Registers struct {
	CR   mmio.R32[command]
	MR   mmio.U32
	IER  mmio.U32
	IDR  mmio.U32
	IMR  mmio.U32
	SR   mmio.R32[status]
	RHR  mmio.U32
	THR  mmio.U32
	BRGR mmio.U32
	_    [55]uint32
	_    [8]uint32 // PDC pointers and counters
	PTCR mmio.U32
	PTSR mmio.U32
}

// PMC holds the peripheral clock registers of the power management
// controller.
type PMC struct {
	_     [4]uint32
	PCER0 mmio.U32
	PCDR0 mmio.U32
	PCSR0 mmio.U32
}

// Device describes the UART.
type Device struct {
	Regs *Registers
	PMC  *PMC
	NVIC *nvic.Registers

	// MCK is the master clock frequency in Hz.
	MCK      uint32
	Baudrate uint32 // defaults to DefaultBaudrate

	// Watchdog is refreshed while waiting for the transmitter, if set.
	Watchdog func()
}

// Default returns the UART of the running chip.
func Default(mck uint32) *Device {
	return &Device{
		Regs: (*Registers)(unsafe.Pointer(BaseAddr)),
		PMC:  (*PMC)(unsafe.Pointer(PMCBaseAddr)),
		NVIC: nvic.NVIC(),
		MCK:  mck,
	}
}

// Begin reinitializes the UART for polled transmission with 8 data bits, no
// parity and one stop bit.
//
//go:nosplit
func (d *Device) Begin() {
	nvic.IRQ(ID).Disable(d.NVIC)
	cortexm.Barrier()

	d.PMC.PCDR0.Store(1 << ID)
	d.PMC.PCER0.Store(1 << ID)

	d.Regs.PTCR.Store(ptcrRXTDIS | ptcrTXTDIS)
	d.Regs.CR.Store(cmdRSTRX | cmdRSTTX | cmdRXDIS | cmdTXDIS)
	d.Regs.MR.Store(modeChNorm | modeParNo)

	baud := d.Baudrate
	if baud == 0 {
		baud = DefaultBaudrate
	}
	d.Regs.BRGR.Store(d.MCK / (baud << 4))

	d.Regs.CR.Store(cmdRXEN | cmdTXEN)
}

// TX writes c as soon as the transmitter is ready.
//
//go:nosplit
func (d *Device) TX(c byte) {
	for d.Regs.SR.LoadBits(statusTXRDY) == 0 {
		if d.Watchdog != nil {
			d.Watchdog()
		}
	}
	d.Regs.THR.Store(uint32(c))
}

// Install makes d the minimal serial.
func Install(d *Device) {
	minserial.Install(d.Begin, d.TX)
}
