package mmio_test

import (
	"testing"

	"github.com/clktmr/postmortem/mmio"
)

type flags uint32

const (
	flagA flags = 1 << iota
	flagB
	flagC
)

func TestBits(t *testing.T) {
	var r mmio.R32[flags]

	r.Store(flagA | flagC)
	r.SetBits(flagB)
	if got := r.Load(); got != flagA|flagB|flagC {
		t.Errorf("SetBits: got %#x", got)
	}
	r.ClearBits(flagA)
	if got := r.LoadBits(flagA | flagB); got != flagB {
		t.Errorf("ClearBits: got %#x", got)
	}
	r.StoreBits(flagB|flagC, flagC)
	if got := r.Load(); got != flagC {
		t.Errorf("StoreBits: got %#x", got)
	}
}

func TestRegisterBlockLayout(t *testing.T) {
	var regs struct {
		a mmio.U32
		b mmio.R32[flags]
		c mmio.U32
	}
	if d := regs.b.Addr() - regs.a.Addr(); d != 4 {
		t.Errorf("b offset %d, expected 4", d)
	}
	if d := regs.c.Addr() - regs.a.Addr(); d != 8 {
		t.Errorf("c offset %d, expected 8", d)
	}
}
