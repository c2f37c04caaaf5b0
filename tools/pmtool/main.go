package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/clktmr/postmortem/tools/decode"
	"github.com/clktmr/postmortem/tools/run"
	"github.com/clktmr/postmortem/tools/watch"
)

const usageString = `pmtool reads post-mortem fault reports of Cortex-M firmware.

Usage:

	%s <command> [arguments]

The commands are:

	decode   decode reports from a capture file
	watch    decode reports from a serial port as they arrive
	run      run an emulator and decode reports from its console
`

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	log.Default().SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "decode":
		decode.Main(flag.Args())
	case "watch":
		watch.Main(flag.Args())
	case "run":
		run.Main(flag.Args())
	default:
		fmt.Fprintf(flag.CommandLine.Output(), "unknown command: %s\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
