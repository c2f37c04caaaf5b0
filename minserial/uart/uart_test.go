package uart_test

import (
	"testing"
	"unsafe"

	"github.com/clktmr/postmortem/cortexm/nvic"
	"github.com/clktmr/postmortem/minserial/uart"
)

func newDevice() (*uart.Device, *uart.Registers) {
	regs := &uart.Registers{}
	return &uart.Device{
		Regs: regs,
		PMC:  &uart.PMC{},
		NVIC: &nvic.Registers{},
		MCK:  84_000_000,
	}, regs
}

func TestLayout(t *testing.T) {
	var r uart.Registers
	if off := r.PTCR.Addr() - uintptr(unsafe.Pointer(&r)); off != 0x120 {
		t.Errorf("PTCR at %#x, expected 0x120", off)
	}
	var p uart.PMC
	if off := p.PCER0.Addr() - uintptr(unsafe.Pointer(&p)); off != 0x10 {
		t.Errorf("PCER0 at %#x, expected 0x10", off)
	}
}

func TestBegin(t *testing.T) {
	d, regs := newDevice()
	d.Begin()

	if !(uart.ID < 32 && d.NVIC.ICER[0].Load() == 1<<uart.ID) {
		t.Errorf("UART irq not disabled, ICER0 = %#x", d.NVIC.ICER[0].Load())
	}
	if got := d.PMC.PCER0.Load(); got != 1<<uart.ID {
		t.Errorf("PCER0 = %#x", got)
	}
	if got := d.PMC.PCDR0.Load(); got != 1<<uart.ID {
		t.Errorf("PCDR0 = %#x", got)
	}
	if got := regs.PTCR.Load(); got != 1<<1|1<<9 {
		t.Errorf("PTCR = %#x, expected PDC disabled", got)
	}
	if got := regs.MR.Load(); got != 4<<9 {
		t.Errorf("MR = %#x, expected no parity", got)
	}
	if got := regs.BRGR.Load(); got != 45 {
		t.Errorf("BRGR = %d, expected 45", got)
	}
	if got := uint32(regs.CR.Load()); got != 1<<4|1<<6 {
		t.Errorf("CR = %#x, expected RXEN|TXEN", got)
	}
}

func TestTX(t *testing.T) {
	d, regs := newDevice()
	polls := 0
	d.Watchdog = func() {
		polls++
		if polls == 10 {
			regs.SR.U32.Store(1 << 1)
		}
	}
	d.TX('x')
	if polls != 10 {
		t.Errorf("watchdog refreshed %d times", polls)
	}
	if got := regs.THR.Load(); got != 'x' {
		t.Errorf("THR = %#x", got)
	}
}
