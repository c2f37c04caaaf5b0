// Package watch implements the watch command of pmtool.
package watch

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	tty "github.com/mattn/go-tty"

	"github.com/clktmr/postmortem/report"
)

const usageString = `Echo a serial port and decode fault reports as they arrive.

Usage: %s [flags]

The port must already be configured for the firmware's baudrate, e.g. with
stty(1).

`

var (
	flags = flag.NewFlagSet("watch", flag.ExitOnError)

	device  = flags.String("tty", "", "Serial device of the board")
	elfPath = flags.String("elf", "", "Firmware ELF file for symbolization")
	quiet   = flags.Bool("q", false, "Don't echo lines outside of reports")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "watch")
	flags.PrintDefaults()
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	if *device == "" || flags.NArg() != 0 {
		flags.Usage()
		os.Exit(1)
	}

	var sym *report.Symbolizer
	if *elfPath != "" {
		var err error
		sym, err = report.OpenSymbolizer(*elfPath)
		if err != nil {
			log.Fatalln("elf:", err)
		}
	}

	port, err := tty.OpenDevice(*device)
	if err != nil {
		log.Fatalln(err)
	}
	restore := port.MustRaw()

	sigintr := make(chan os.Signal, 1)
	signal.Notify(sigintr, os.Interrupt)
	go func() {
		<-sigintr
		restore()
		port.Close()
		os.Exit(0)
	}()

	err = Watch(os.Stdout, port.Input(), sym, !*quiet)
	restore()
	port.Close()
	if err != nil {
		log.Fatalln(err)
	}
}

// Watch echoes lines from r and writes decoded reports to w as soon as they
// are complete. It stops at the end of r and returns the first error reading r
// or writing w.
func Watch(w io.Writer, r io.Reader, sym *report.Symbolizer, echo bool) error {
	var s report.Scanner
	var werr error
	err := s.Scan(r, func(line string, rep *report.Report) {
		if echo || s.Pending() != nil || rep != nil {
			log.Println(line)
		}
		if rep == nil || werr != nil {
			return
		}
		fmt.Fprintln(w)
		werr = report.Format(w, rep, sym)
		fmt.Fprintln(w)
	})
	if err != nil {
		return err
	}
	if werr != nil {
		return fmt.Errorf("write report: %w", werr)
	}
	return nil
}
