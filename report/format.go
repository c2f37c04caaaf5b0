package report

import (
	"fmt"
	"io"
	"strings"
)

// Format writes a human readable interpretation of r to w. sym may be nil.
func Format(w io.Writer, r *Report, sym *Symbolizer) error {
	var b strings.Builder
	stack := "main"
	if r.ProcessStack() {
		stack = "process"
	}
	fmt.Fprintf(&b, "%s fault [%02x] on %s stack at %#08x\n", r.Cause, r.Fingerprint(), stack, r.ExcSP)
	if !r.Complete {
		fmt.Fprintln(&b, "  (report truncated)")
	}

	fmt.Fprintf(&b, "  pc  %#08x%s\n", r.Frame.PC, symbol(sym, r.Frame.PC))
	fmt.Fprintf(&b, "  lr  %#08x%s\n", r.Frame.LR, symbol(sym, r.Frame.LR))
	fmt.Fprintf(&b, "  r0  %#08x  r1  %#08x  r2  %#08x  r3  %#08x\n",
		r.Frame.R0, r.Frame.R1, r.Frame.R2, r.Frame.R3)
	fmt.Fprintf(&b, "  r12 %#08x  psr %#08x\n", r.Frame.R12, r.Frame.PSR)

	for _, f := range r.Flags() {
		fmt.Fprintf(&b, "  %s.%-11s %s\n", f.Register, f.Name, f.Desc)
	}
	if addr, ok := r.MemManageAddress(); ok {
		fmt.Fprintf(&b, "  memmanage fault address %#08x\n", addr)
	}
	if addr, ok := r.BusFaultAddress(); ok {
		fmt.Fprintf(&b, "  bus fault address %#08x\n", addr)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func symbol(sym *Symbolizer, addr uint32) string {
	if sym == nil {
		return ""
	}
	name, off, ok := sym.Lookup(addr)
	if !ok {
		return ""
	}
	return fmt.Sprintf(" %s+%#x", name, off)
}
