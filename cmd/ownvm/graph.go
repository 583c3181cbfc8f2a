package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ownvm/internal/heapgraph"
	"ownvm/internal/kernel"
	"ownvm/internal/machine"
	"ownvm/internal/stepper"
)

func newGraphCmd() *cobra.Command {
	var steps int
	var out string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Run the built-in demo program N steps and dump a heap graph of the resulting state",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			program := buildDemoProgram()
			m := machine.New(program, log)
			m.PushFrame(machine.NewFrame(program.Functions["main"]))

			k := &kernel.StdoutKernel{Out: os.Stdout, Log: log}
			s := stepper.New(m, k)
			s.SetIncludeTemporaries(cfg.GetBool("include-temporaries"))

			for i := 0; i < steps; i++ {
				flow, err := s.Step()
				if err != nil {
					return err
				}
				if _, done := flow.(stepper.Done); done {
					break
				}
			}

			dot := heapgraph.Render(heapgraph.Snapshot(m), cfg.GetBool("include-temporaries"))

			if out == "" {
				fmt.Print(dot)
				return nil
			}
			return os.WriteFile(out, []byte(dot), 0o644)
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of Step calls to run before rendering")
	cmd.Flags().StringVar(&out, "out", "", "write the graph here instead of stdout")
	return cmd
}
