package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ownvm/internal/kernel"
	"ownvm/internal/machine"
	"ownvm/internal/stepper"
)

func newRunCmd() *cobra.Command {
	var graphOut string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the built-in demo program to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			program := buildDemoProgram()
			m := machine.New(program, log)
			m.PushFrame(machine.NewFrame(program.Functions["main"]))

			k := &kernel.StdoutKernel{
				Out:                os.Stdout,
				Log:                log,
				IncludeTemporaries: cfg.GetBool("include-temporaries"),
			}
			if graphOut != "" {
				f, err := os.Create(graphOut)
				if err != nil {
					return err
				}
				defer f.Close()
				k.Graphs = f
			}

			s := stepper.New(m, k)
			s.SetIncludeTemporaries(cfg.GetBool("include-temporaries"))

			for {
				flow, err := s.Step()
				if err != nil {
					return err
				}
				if done, ok := flow.(stepper.Done); ok {
					printIfNotUnit(m, done.Value)
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&graphOut, "graph-out", "", "write a heap graph for every breakpoint to this file")
	return cmd
}

// printIfNotUnit prints a short description of a value to stdout (an
// instance's class name, otherwise its object kind) unless it is Unit:
// a top-level statement's Unit result is never worth showing.
func printIfNotUnit(m machine.MachineOp, v machine.Value) {
	if _, isUnit := m.Object(v.Object).(machine.UnitObject); isUnit {
		return
	}
	fmt.Printf("=> %s\n", describeValue(m, v))
}

func describeValue(m machine.MachineOp, v machine.Value) string {
	switch o := m.Object(v.Object).(type) {
	case machine.Instance:
		return o.Class.Name + " instance"
	default:
		return o.Kind()
	}
}
