// Package mmio provides register cells for memory mapped I/O.
//
// The API mirrors embedded/mmio from the Embedded Go toolchain, but is built on
// sync/atomic so the same driver code runs against real peripherals on the
// target and against register blocks allocated in ordinary memory in host
// tests. The compiler never elides an atomic access.
package mmio

import (
	"sync/atomic"
	"unsafe"
)

// T32 is the set of types a 32-bit register can be interpreted as.
type T32 interface{ ~int32 | ~uint32 }

// U32 is a 32-bit register.
type U32 struct {
	v uint32
}

//go:nosplit
func (r *U32) Load() uint32 { return atomic.LoadUint32(&r.v) }

//go:nosplit
func (r *U32) Store(v uint32) { atomic.StoreUint32(&r.v, v) }

//go:nosplit
func (r *U32) LoadBits(mask uint32) uint32 { return r.Load() & mask }

// StoreBits replaces the bits selected by mask with the corresponding bits of
// v. It's a read-modify-write and not atomic with respect to the hardware.
//
//go:nosplit
func (r *U32) StoreBits(mask, v uint32) { r.Store(r.Load()&^mask | v&mask) }

//go:nosplit
func (r *U32) SetBits(mask uint32) { r.Store(r.Load() | mask) }

//go:nosplit
func (r *U32) ClearBits(mask uint32) { r.Store(r.Load() &^ mask) }

// Addr returns the address of the register.
func (r *U32) Addr() uintptr { return uintptr(unsafe.Pointer(r)) }

// R32 is a 32-bit register holding values of type T, usually a set of flags.
type R32[T T32] struct {
	U32
}

//go:nosplit
func (r *R32[T]) Load() T { return T(r.U32.Load()) }

//go:nosplit
func (r *R32[T]) Store(v T) { r.U32.Store(uint32(v)) }

//go:nosplit
func (r *R32[T]) LoadBits(mask T) T { return T(r.U32.LoadBits(uint32(mask))) }

//go:nosplit
func (r *R32[T]) StoreBits(mask, v T) { r.U32.StoreBits(uint32(mask), uint32(v)) }

//go:nosplit
func (r *R32[T]) SetBits(mask T) { r.U32.SetBits(uint32(mask)) }

//go:nosplit
func (r *R32[T]) ClearBits(mask T) { r.U32.ClearBits(uint32(mask)) }
