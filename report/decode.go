package report

import (
	"encoding/binary"

	"github.com/sigurn/crc8"
)

// Flag is a bit in one of the fault status registers.
type Flag struct {
	Register string
	Bit      uint
	Name     string
	Desc     string
}

var cfsrFlags = []Flag{
	{"CFSR", 0, "IACCVIOL", "instruction access violation"},
	{"CFSR", 1, "DACCVIOL", "data access violation"},
	{"CFSR", 3, "MUNSTKERR", "MemManage fault on unstacking for exception return"},
	{"CFSR", 4, "MSTKERR", "MemManage fault on stacking for exception entry"},
	{"CFSR", 5, "MLSPERR", "MemManage fault during floating-point lazy state preservation"},
	{"CFSR", 7, "MMARVALID", "MMAR holds a valid fault address"},
	{"CFSR", 8, "IBUSERR", "instruction bus error"},
	{"CFSR", 9, "PRECISERR", "precise data bus error"},
	{"CFSR", 10, "IMPRECISERR", "imprecise data bus error"},
	{"CFSR", 11, "UNSTKERR", "bus fault on unstacking for exception return"},
	{"CFSR", 12, "STKERR", "bus fault on stacking for exception entry"},
	{"CFSR", 13, "LSPERR", "bus fault during floating-point lazy state preservation"},
	{"CFSR", 15, "BFARVALID", "BFAR holds a valid fault address"},
	{"CFSR", 16, "UNDEFINSTR", "undefined instruction"},
	{"CFSR", 17, "INVSTATE", "invalid state, e.g. branch to an even address"},
	{"CFSR", 18, "INVPC", "invalid PC load by EXC_RETURN"},
	{"CFSR", 19, "NOCP", "no coprocessor"},
	{"CFSR", 24, "UNALIGNED", "unaligned access"},
	{"CFSR", 25, "DIVBYZERO", "divide by zero"},
}

var hfsrFlags = []Flag{
	{"HFSR", 1, "VECTTBL", "bus fault on vector table read"},
	{"HFSR", 30, "FORCED", "escalated configurable fault"},
	{"HFSR", 31, "DEBUGEVT", "debug event while debugging disabled"},
}

var dfsrFlags = []Flag{
	{"DFSR", 0, "HALTED", "halt request"},
	{"DFSR", 1, "BKPT", "breakpoint"},
	{"DFSR", 2, "DWTTRAP", "watchpoint"},
	{"DFSR", 3, "VCATCH", "vector catch"},
	{"DFSR", 4, "EXTERNAL", "external debug request"},
}

const (
	mmarValid = 1 << 7
	bfarValid = 1 << 15
)

// Flags returns the set bits of CFSR, HFSR and DFSR.
func (r *Report) Flags() (flags []Flag) {
	regs := []struct {
		value uint32
		flags []Flag
	}{
		{r.Status.CFSR, cfsrFlags},
		{r.Status.HFSR, hfsrFlags},
		{r.Status.DFSR, dfsrFlags},
	}
	for _, reg := range regs {
		for _, f := range reg.flags {
			if reg.value&(1<<f.Bit) != 0 {
				flags = append(flags, f)
			}
		}
	}
	return
}

// MemManageAddress returns MMAR if it holds a valid address.
func (r *Report) MemManageAddress() (uint32, bool) {
	return r.Status.MMAR, r.Status.CFSR&mmarValid != 0
}

// BusFaultAddress returns BFAR if it holds a valid address.
func (r *Report) BusFaultAddress() (uint32, bool) {
	return r.Status.BFAR, r.Status.CFSR&bfarValid != 0
}

// ProcessStack reports whether the faulting code ran on the process stack.
func (r *Report) ProcessStack() bool {
	return r.ExcLR&(1<<2) != 0
}

var fingerprintCRC8 = crc8.MakeTable(crc8.CRC8)

// Fingerprint identifies the fault site: reports with the same cause, PC, LR
// and CFSR share it. It's meant for grouping crashes, not for integrity.
func (r *Report) Fingerprint() uint8 {
	var buf [13]byte
	buf[0] = byte(r.Cause)
	binary.BigEndian.PutUint32(buf[1:], r.Frame.PC)
	binary.BigEndian.PutUint32(buf[5:], r.Frame.LR)
	binary.BigEndian.PutUint32(buf[9:], r.Status.CFSR)

	csum := crc8.Init(fingerprintCRC8)
	csum = crc8.Update(csum, buf[:], fingerprintCRC8)
	return crc8.Complete(csum, fingerprintCRC8)
}
