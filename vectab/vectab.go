// Package vectab relocates the exception vector table of an ARMv7-M core to
// RAM, so individual vectors can be replaced at run time.
//
// The active table usually lives in flash, where it can't be patched. Relocate
// copies it into a statically allocated table, patches the copy and points
// VTOR at it. The original table stays untouched and is what the core falls
// back to after VTOR is cleared.
package vectab

import (
	"errors"
	"math/bits"
	"unsafe"

	"github.com/clktmr/postmortem/debug"
)

// Exception numbers of the configurable faults, which are also their indices
// in the vector table.
const (
	HardFault      = 3
	MemManageFault = 4
	BusFault       = 5
	UsageFault     = 6
)

const (
	// MaxEntries is the capacity of the RAM table: 16 system exceptions
	// plus the maximum of 240 external interrupts.
	MaxEntries = 256

	// Align is the minimum alignment of the RAM table. VTOR ignores the low
	// 7 bits, tables of more than 32 entries need more, see Alignment.
	Align = 128

	// DefaultSentinel bounds probing for the table's size.
	DefaultSentinel = 80

	// TBLBASE marks a table in SRAM rather than in the code region.
	TBLBASE = 1 << 29
)

var (
	ErrSizeUnknown = errors.New("vectab: table size unknown within sentinel")
	ErrTooLarge    = errors.New("vectab: table exceeds MaxEntries")
	ErrInstalled   = errors.New("vectab: already relocated")
)

// Base gives access to the vector table offset register.
type Base interface {
	VectorTableBase() uintptr
	SetVectorTableBase(addr uintptr)
}

// Config describes the vector table of a chip.
type Config struct {
	// Size is the number of entries in the table, if known at build time.
	// Otherwise the size is probed.
	Size int

	// Sentinel bounds probing. Defaults to DefaultSentinel.
	Sentinel int

	// InProgramMemory reports whether a vector points to program memory.
	// Probing stops at the first entry that doesn't. Defaults to a check
	// for the 0x08xx_xxxx flash region of STM32 chips.
	InProgramMemory func(vector uint32) bool
}

// Patch replaces the vector at Index with Addr.
type Patch struct {
	Index int
	Addr  uint32
}

// Storage for the active table. Its start is chosen at run time to satisfy
// the alignment, there is no way to align a static variable in Go. Twice the
// capacity fits a full table at its 1 KiB alignment.
var (
	storage   [2 * MaxEntries]uint32
	active    []uint32
	relocated bool
)

func inFlash(vector uint32) bool {
	return vector&0xff00_0000 == 0x0800_0000
}

// Probe returns the number of entries in the table at base. It scans from
// index 1, skipping the initial stack pointer, until an entry doesn't point to
// program memory. If that doesn't happen before cfg.Sentinel, the size is
// unknown and ErrSizeUnknown is returned.
func Probe(base uintptr, cfg *Config) (int, error) {
	sentinel := cfg.Sentinel
	if sentinel == 0 {
		sentinel = DefaultSentinel
	}
	sentinel = min(sentinel, MaxEntries)
	valid := cfg.InProgramMemory
	if valid == nil {
		valid = inFlash
	}

	table := unsafe.Slice((*uint32)(unsafe.Pointer(base)), sentinel)
	size := 1
	for size < sentinel && valid(table[size]) {
		size++
	}
	if size == sentinel {
		return 0, ErrSizeUnknown
	}
	return size, nil
}

// Alignment returns the required alignment of a table with size entries: the
// table size in bytes rounded up to a power of two, at least Align.
func Alignment(size int) uintptr {
	if size*4 <= Align {
		return Align
	}
	return uintptr(1) << bits.Len(uint(size*4-1))
}

// Relocate copies the table VTOR currently points to into RAM, applies
// patches and activates the copy. It must be called at most once per boot,
// during start-up. On error VTOR isn't written and the original table stays
// active.
func Relocate(vtor Base, cfg *Config, patches ...Patch) error {
	if relocated {
		return ErrInstalled
	}

	base := vtor.VectorTableBase()
	size := cfg.Size
	if size == 0 {
		var err error
		if size, err = Probe(base, cfg); err != nil {
			return err
		}
	}
	if size > MaxEntries {
		return ErrTooLarge
	}
	for _, p := range patches {
		debug.Assert(p.Index > 0 && p.Index < size, "vectab: patch out of range")
	}

	align := Alignment(size)
	addr := uintptr(unsafe.Pointer(&storage[0]))
	shift := (align - addr%align) % align / 4
	table := storage[shift : shift+MaxEntries]
	debug.AssertAligned(uintptr(unsafe.Pointer(&table[0])), align, "vectab: misaligned table")

	copy(table, unsafe.Slice((*uint32)(unsafe.Pointer(base)), size))
	for _, p := range patches {
		table[p.Index] = p.Addr
	}

	active = table[:size]
	relocated = true
	vtor.SetVectorTableBase(uintptr(unsafe.Pointer(&table[0])) | TBLBASE)
	return nil
}

// Active returns the RAM table, or nil if Relocate didn't succeed yet.
func Active() []uint32 {
	return active
}
