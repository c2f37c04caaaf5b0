// Package minserial is a fail-safe character output for post-mortem
// diagnostics.
//
// It only ever polls hardware: it doesn't depend on interrupts, buffering or
// the heap, so it keeps working after a fault left the ordinary serial driver
// in an unknown state. A target installs its polling implementation once at
// start-up with [Install]. Without one, output is forwarded to the ordinary
// serial output, see [SetSerial].
package minserial

import (
	"io"
	"os"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Transport holds the two operations of the minimal serial.
type Transport struct {
	// Init brings the peripheral into a known state. It might be called
	// while the peripheral is in the middle of a transfer.
	Init func()

	// Emit writes a single character, polling until the peripheral accepts
	// it.
	Emit func(c byte)
}

var active = Transport{Init: DefaultInit, Emit: DefaultEmit}

var (
	serial io.Writer = os.Stdout
	char   [1]byte
)

// DefaultInit does nothing.
func DefaultInit() {}

// DefaultEmit forwards c to the ordinary serial output.
func DefaultEmit(c byte) {
	char[0] = c
	serial.Write(char[:])
}

// SetSerial sets the ordinary serial output used by [DefaultEmit]. It defaults
// to os.Stdout.
func SetSerial(w io.Writer) {
	serial = w
}

// Install replaces both operations. Must be called at most once during
// start-up, before any fault can occur. Passing nil is not allowed, use
// [DefaultInit] or [DefaultEmit] to keep one of them.
func Install(init func(), emit func(c byte)) {
	active = Transport{Init: init, Emit: emit}
}

// Installed returns the current operations.
func Installed() Transport {
	return active
}

// Init reinitializes the transport.
//
//go:nosplit
func Init() {
	active.Init()
}

// Emit writes c.
//
//go:nosplit
func Emit(c byte) {
	active.Emit(c)
}

// TX writes s.
//
//go:nosplit
func TX(s string) {
	for i := 0; i < len(s); i++ {
		active.Emit(s[i])
	}
}

const hexDigits = "0123456789ABCDEF"

// TXHex writes v as zero-padded, uppercase hexadecimal number with two digits
// per byte of T, most significant digit first and without prefix.
//
//go:nosplit
func TXHex[T constraints.Unsigned](v T) {
	for shift := int(unsafe.Sizeof(v))*8 - 4; shift >= 0; shift -= 4 {
		active.Emit(hexDigits[uint8(v>>shift)&0xf])
	}
}

// Writer writes through the minimal serial.
type Writer struct{}

func (Writer) Write(p []byte) (int, error) {
	for _, c := range p {
		active.Emit(c)
	}
	return len(p), nil
}
