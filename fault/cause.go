package fault

import "unsafe"

// Cause identifies the exception that led to a report.
type Cause uint32

const (
	Unknown Cause = iota
	Hard
	Mem
	Bus
	Usage

	numCauses
)

var causeNames = [numCauses]string{
	Unknown: "Unknown",
	Hard:    "Hard",
	Mem:     "Mem",
	Bus:     "Bus",
	Usage:   "Usage",
}

//go:nosplit
func (c Cause) String() string {
	if c >= numCauses {
		return causeNames[Unknown]
	}
	return causeNames[c]
}

// Frame is the part of the register file the core pushes to the stack on
// exception entry.
type Frame struct {
	R0, R1, R2, R3 uint32
	R12            uint32
	LR             uint32
	PC             uint32
	PSR            uint32
}

// FrameSize is the number of bytes a Frame occupies on the stack.
const FrameSize = unsafe.Sizeof(Frame{})

// Status holds the fault status and fault address registers.
type Status struct {
	CFSR uint32 // configurable fault status, UFSR<<16 | BFSR<<8 | MMFSR
	HFSR uint32 // hard fault status
	DFSR uint32 // debug fault status
	AFSR uint32 // auxiliary fault status, implementation defined
	MMAR uint32 // MemManage fault address, valid if CFSR.MMARVALID
	BFAR uint32 // bus fault address, valid if CFSR.BFARVALID
}
