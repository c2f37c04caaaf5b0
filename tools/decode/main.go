// Package decode implements the decode command of pmtool.
package decode

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/clktmr/postmortem/report"
)

const usageString = `Decode fault reports from a serial capture.

Usage: %s [flags] [capture]

Reads stdin if no capture file is given.

`

var (
	flags = flag.NewFlagSet("decode", flag.ExitOnError)

	elfPath = flags.String("elf", "", "Firmware ELF file for symbolization")
)

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "decode")
	flags.PrintDefaults()
}

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	var in io.Reader = os.Stdin
	switch flags.NArg() {
	case 0:
	case 1:
		f, err := os.Open(flags.Arg(0))
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		in = f
	default:
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

	err := Decode(os.Stdout, in, sym)
	if errors.Is(err, report.ErrTruncated) {
		log.Println("warning:", err)
	} else if err != nil {
		log.Fatalln(err)
	}
}

// Decode writes every report found in r to w.
func Decode(w io.Writer, r io.Reader, sym *report.Symbolizer) error {
	reports, err := report.Parse(r)
	for i := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := report.Format(w, &reports[i], sym); err != nil {
			return err
		}
	}
	return err
}
