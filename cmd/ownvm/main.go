// Command ownvm drives the execution core from the command line: it runs
// the built-in demo program to completion (run) or dumps a heap graph of
// its state at any step (graph).
package main

import (
	"os"

	"github.com/rs/zerolog"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
