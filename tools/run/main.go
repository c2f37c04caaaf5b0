// Copyright 2024 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package run implements the run command of pmtool.
package run

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aymanbagabas/go-pty"
	"github.com/buildkite/shellwords"

	"github.com/clktmr/postmortem/report"
)

const usageString = `Run firmware in an emulator and decode fault reports from its console.

Usage: %s [flags] <command>

The command is split like a shell would, e.g.
	%s -elf fw.elf "qemu-system-arm -M netduinoplus2 -nographic -kernel fw.elf"

The exit code is 1 if a fault was reported.

`

var (
	flags = flag.NewFlagSet("run", flag.ExitOnError)

	elfPath = flags.String("elf", "", "Firmware ELF file for symbolization")
	linger  = flags.Duration("linger", 500*time.Millisecond, "Time to wait for the backtrace after a report")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "run", "run")
	flags.PrintDefaults()
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(1)
	}

	cmdline, err := shellwords.Split(flags.Arg(0))
	if err != nil {
		log.Fatalln("run:", err)
	}
	if len(cmdline) == 0 {
		log.Fatalln("run: empty command")
	}

	var sym *report.Symbolizer
	if *elfPath != "" {
		sym, err = report.OpenSymbolizer(*elfPath)
		if err != nil {
			log.Fatalln("elf:", err)
		}
	}

	ptmx, err := pty.New()
	if err != nil {
		log.Fatalln("open pty:", err)
	}
	defer ptmx.Close()

	cmd := ptmx.Command(cmdline[0], cmdline[1:]...)
	err = cmd.Start()
	if err != nil {
		log.Fatalln("start command:", err)
	}

	sigintr := make(chan os.Signal, 1)
	signal.Notify(sigintr, os.Interrupt)
	go func() {
		<-sigintr
		ptmx.Close()
		cmd.Process.Kill()
	}()

	stop := func() {
		// the firmware resets after the report, give the backtrace
		// time to be printed
		time.Sleep(*linger)
		ptmx.Close()
		cmd.Process.Kill()
	}
	faults, err := Monitor(os.Stdout, ptmx, sym, func() { go stop() })
	// reading a pty fails once the command exited or was killed
	if err != nil && !errors.Is(err, syscall.EIO) && !errors.Is(err, os.ErrClosed) {
		log.Println("run:", err)
	}
	cmd.Wait()
	if faults > 0 {
		os.Exit(1)
	}
}

// Monitor echoes the console output read from r and writes decoded reports to
// w. It calls onFault once, after the first report. Reports are counted even
// if writing them fails, err is the first error reading r or writing w.
func Monitor(w io.Writer, r io.Reader, sym *report.Symbolizer, onFault func()) (faults int, err error) {
	var werr error
	err = report.Stream(r, func(line string, rep *report.Report) {
		log.Println(line)
		if rep == nil {
			return
		}
		if err := report.Format(w, rep, sym); err != nil && werr == nil {
			werr = fmt.Errorf("write report: %w", err)
		}
		faults++
		if faults == 1 {
			onFault()
		}
	})
	if err == nil {
		err = werr
	}
	return
}
