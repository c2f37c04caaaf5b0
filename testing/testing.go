// Package testing provides instrumented stand-ins for the hardware and the
// collaborators of the fault handler, so the handler can run on the host.
//
// All stand-ins share a Log, which records the order in which the handler
// touched them.
package testing

import (
	"bytes"
	"fmt"

	"github.com/clktmr/postmortem/fault"
	"github.com/clktmr/postmortem/minserial"
)

type Kind int

const (
	Init Kind = iota
	SetVTOR
	ReadStatus
	Breakpoint
	Reset
	Backtrace
	LastResort
)

var kindNames = [...]string{"Init", "SetVTOR", "ReadStatus", "Breakpoint", "Reset", "Backtrace", "LastResort"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is a single interaction with a stand-in.
type Event struct {
	Kind Kind
	Args [3]uintptr

	// Emitted is the number of bytes written to the Transport before the
	// event.
	Emitted int
}

// Log records events of all stand-ins sharing it.
type Log struct {
	Events []Event
	Out    bytes.Buffer
}

func (l *Log) add(k Kind, args ...uintptr) {
	ev := Event{Kind: k, Emitted: l.Out.Len()}
	copy(ev.Args[:], args)
	l.Events = append(l.Events, ev)
}

// Kinds returns the kinds of all events in order.
func (l *Log) Kinds() []Kind {
	kinds := make([]Kind, len(l.Events))
	for i, ev := range l.Events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// Count returns the number of events of kind k.
func (l *Log) Count(k Kind) (n int) {
	for _, ev := range l.Events {
		if ev.Kind == k {
			n++
		}
	}
	return
}

// Platform implements fault.Platform with plain memory.
type Platform struct {
	*Log
	VTOR     uintptr
	Debugger bool
	Status   fault.Status
}

var _ fault.Platform = (*Platform)(nil)

func NewPlatform(log *Log) *Platform {
	return &Platform{Log: log}
}

func (p *Platform) VectorTableBase() uintptr { return p.VTOR }

func (p *Platform) SetVectorTableBase(addr uintptr) {
	p.add(SetVTOR, addr)
	p.VTOR = addr
}

func (p *Platform) DebuggerAttached() bool { return p.Debugger }

func (p *Platform) Breakpoint() { p.add(Breakpoint) }

func (p *Platform) FaultStatus() fault.Status {
	p.add(ReadStatus)
	return p.Status
}

func (p *Platform) Reset() { p.add(Reset) }

// InstallTransport installs a minimal serial writing to log.Out. The returned
// function restores the previous one.
func InstallTransport(log *Log) (restore func()) {
	prev := minserial.Installed()
	minserial.Install(
		func() { log.add(Init) },
		func(c byte) { log.Out.WriteByte(c) },
	)
	return func() { minserial.Install(prev.Init, prev.Emit) }
}

// Backtrace returns a backtrace collaborator recording its arguments.
func (l *Log) Backtrace() func(sp uintptr, lr, pc uint32) {
	return func(sp uintptr, lr, pc uint32) {
		l.add(Backtrace, sp, uintptr(lr), uintptr(pc))
	}
}

// LastResort returns a last resort hook recording its invocation.
func (l *Log) LastResort() func() {
	return func() { l.add(LastResort) }
}
