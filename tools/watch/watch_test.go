package watch

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"
)

const capture = "temp 20.1\n" +
	"## Software Fault detected ##\n" +
	"Cause: Mem\n" +
	"R0   : 00000000\nR1   : 00000000\nR2   : 00000000\nR3   : 00000000\n" +
	"R12  : 00000000\nLR   : 08000413\nPC   : 0800052A\nPSR  : 01000000\n" +
	"CFSR : 00000082\nHFSR : 00000000\nDFSR : 00000000\nAFSR : 00000000\n" +
	"MMAR : 00000004\nBFAR : 00000000\nExcLR: FFFFFFFD\nExcSP: 20001FE0\n" +
	"temp 20.2\n"

func TestWatch(t *testing.T) {
	var echoed bytes.Buffer
	log.SetOutput(&echoed)
	defer log.SetOutput(os.Stderr)

	var out strings.Builder
	if err := Watch(&out, strings.NewReader(capture), nil, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "memmanage fault address") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if strings.Contains(echoed.String(), "temp") {
		t.Errorf("echoed lines outside of report:\n%s", echoed.String())
	}
	if !strings.Contains(echoed.String(), "Cause: Mem") {
		t.Errorf("report lines not echoed:\n%s", echoed.String())
	}
}

type brokenPipe struct{}

func (brokenPipe) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWatchWriteError(t *testing.T) {
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	err := Watch(brokenPipe{}, strings.NewReader(capture), nil, false)
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Errorf("got %v, expected write error", err)
	}
}
