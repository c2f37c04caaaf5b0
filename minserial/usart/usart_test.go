package usart_test

import (
	"testing"

	"github.com/clktmr/postmortem/cortexm/nvic"
	"github.com/clktmr/postmortem/minserial"
	"github.com/clktmr/postmortem/minserial/usart"
	"github.com/clktmr/postmortem/mmio"
)

const (
	txe = 1 << 7
	te  = 1 << 3
	ue  = 1 << 13
)

type board struct {
	regs  usart.Registers
	nvic  nvic.Registers
	clock mmio.U32
	dev   *usart.Device
}

func newBoard() *board {
	b := &board{}
	b.dev = &usart.Device{
		Regs:      &b.regs,
		IRQ:       37,
		NVIC:      &b.nvic,
		Clock:     &b.clock,
		ClockMask: 1 << 14,
		PClk:      72_000_000,
	}
	return b
}

func TestBegin(t *testing.T) {
	b := newBoard()
	b.regs.CR1.U32.Store(0xffff)
	b.regs.CR2.Store(0x3000)
	b.regs.CR3.Store(0x80) // DMA transmitter

	b.dev.Begin()

	if got := b.nvic.ICER[1].Load(); got != 1<<5 {
		t.Errorf("ICER1 = %#x, expected irq 37 disabled", got)
	}
	if b.clock.LoadBits(1<<14) == 0 {
		t.Error("peripheral clock left disabled")
	}
	if got := b.regs.CR1.U32.Load(); got != te|ue {
		t.Errorf("CR1 = %#x, expected %#x", got, te|ue)
	}
	if got := b.regs.CR2.Load(); got != 0 {
		t.Errorf("CR2 = %#x, expected 1 stop bit", got)
	}
	if got := b.regs.CR3.Load(); got != 0 {
		t.Errorf("CR3 = %#x", got)
	}
	if got := b.regs.BRR.Load(); got != 625 {
		t.Errorf("BRR = %d, expected 625 for 115200 baud", got)
	}
}

func TestTXPollsWithWatchdog(t *testing.T) {
	b := newBoard()
	refreshes := 0
	b.dev.Watchdog = func() {
		refreshes++
		if refreshes == 3 {
			b.regs.SR.U32.Store(txe)
		}
	}

	b.dev.TX('A')
	if refreshes != 3 {
		t.Errorf("watchdog refreshed %d times, expected 3", refreshes)
	}
	if got := b.regs.DR.Load(); got != 'A' {
		t.Errorf("DR = %#x, expected 'A'", got)
	}
}

func TestInstall(t *testing.T) {
	prev := minserial.Installed()
	defer minserial.Install(prev.Init, prev.Emit)

	b := newBoard()
	b.regs.SR.U32.Store(txe)
	usart.Install(b.dev)

	minserial.Init()
	if got := b.regs.CR1.U32.Load(); got != te|ue {
		t.Errorf("minserial.Init didn't reach the USART, CR1 = %#x", got)
	}
	minserial.TX("Hi")
	if got := b.regs.DR.Load(); got != 'i' {
		t.Errorf("DR = %q, expected last character 'i'", rune(got))
	}
}
