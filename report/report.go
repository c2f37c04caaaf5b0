// Package report reads post-mortem reports back from serial captures.
//
// A report is the text the fault handler writes to the minimal serial: a
// banner followed by one "Label: HEXVALUE" line per register. Anything around
// it, like ordinary log output or the backtrace, is ignored.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/transform"

	"github.com/clktmr/postmortem/fault"
)

const Banner = "## Software Fault detected ##"

var (
	ErrNoReport  = errors.New("report: no fault report found")
	ErrTruncated = errors.New("report: truncated fault report")
)

// Report is a parsed post-mortem report.
type Report struct {
	Cause  fault.Cause
	Frame  fault.Frame
	Status fault.Status
	ExcLR  uint32 // EXC_RETURN
	ExcSP  uint32 // address of Frame

	// Complete is false if the capture ended in the middle of the report.
	Complete bool
}

type field struct {
	label string
	ptr   func(r *Report) *uint32
}

// fields in the order they are written.
var fields = []field{
	{"R0", func(r *Report) *uint32 { return &r.Frame.R0 }},
	{"R1", func(r *Report) *uint32 { return &r.Frame.R1 }},
	{"R2", func(r *Report) *uint32 { return &r.Frame.R2 }},
	{"R3", func(r *Report) *uint32 { return &r.Frame.R3 }},
	{"R12", func(r *Report) *uint32 { return &r.Frame.R12 }},
	{"LR", func(r *Report) *uint32 { return &r.Frame.LR }},
	{"PC", func(r *Report) *uint32 { return &r.Frame.PC }},
	{"PSR", func(r *Report) *uint32 { return &r.Frame.PSR }},
	{"CFSR", func(r *Report) *uint32 { return &r.Status.CFSR }},
	{"HFSR", func(r *Report) *uint32 { return &r.Status.HFSR }},
	{"DFSR", func(r *Report) *uint32 { return &r.Status.DFSR }},
	{"AFSR", func(r *Report) *uint32 { return &r.Status.AFSR }},
	{"MMAR", func(r *Report) *uint32 { return &r.Status.MMAR }},
	{"BFAR", func(r *Report) *uint32 { return &r.Status.BFAR }},
	{"ExcLR", func(r *Report) *uint32 { return &r.ExcLR }},
	{"ExcSP", func(r *Report) *uint32 { return &r.ExcSP }},
}

var causes = map[string]fault.Cause{
	"Unknown": fault.Unknown,
	"Hard":    fault.Hard,
	"Mem":     fault.Mem,
	"Bus":     fault.Bus,
	"Usage":   fault.Usage,
}

// Scanner assembles reports from a stream of lines.
type Scanner struct {
	cur  *Report
	next int // index into fields, -1 while expecting the cause
}

// Line feeds the next line of output. It returns a report when line completed
// one. A banner discards an unfinished report, the core faulted again before
// it was written.
func (s *Scanner) Line(line string) *Report {
	line = strings.TrimSpace(line)
	if line == Banner {
		s.cur = &Report{}
		s.next = -1
		return nil
	}
	if s.cur == nil {
		return nil
	}

	label, value, ok := strings.Cut(line, ":")
	if !ok {
		return nil
	}
	label, value = strings.TrimSpace(label), strings.TrimSpace(value)

	if s.next < 0 {
		if label != "Cause" {
			return nil
		}
		s.cur.Cause = causes[value] // Unknown if unknown
		s.next = 0
		return nil
	}

	f := fields[s.next]
	if label != f.label {
		return nil
	}
	v, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return nil
	}
	*f.ptr(s.cur) = uint32(v)
	s.next++

	if s.next == len(fields) {
		r := s.cur
		r.Complete = true
		s.cur = nil
		return r
	}
	return nil
}

// Pending returns the report currently being assembled, if any.
func (s *Scanner) Pending() *Report {
	return s.cur
}

// Parse returns all reports in r. If the last report is incomplete, it's
// returned along with ErrTruncated.
func Parse(r io.Reader) (reports []Report, err error) {
	var s Scanner
	err = s.Scan(r, func(line string, rep *Report) {
		if rep != nil {
			reports = append(reports, *rep)
		}
	})
	if err != nil {
		return reports, fmt.Errorf("report: read: %w", err)
	}
	if p := s.Pending(); p != nil {
		return append(reports, *p), ErrTruncated
	}
	if len(reports) == 0 {
		return nil, ErrNoReport
	}
	return reports, nil
}

// Scan calls fn for every sanitized line read from r, along with the report
// the line completed, if any. It returns when r is exhausted.
func (s *Scanner) Scan(r io.Reader, fn func(line string, rep *Report)) error {
	scanner := bufio.NewScanner(transform.NewReader(r, Sanitizer()))
	for scanner.Scan() {
		line := scanner.Text()
		fn(line, s.Line(line))
	}
	return scanner.Err()
}

// Stream is like Scanner.Scan with a new Scanner.
func Stream(r io.Reader, fn func(line string, rep *Report)) error {
	return new(Scanner).Scan(r, fn)
}
