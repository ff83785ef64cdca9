package main

import (
	"fmt"
	"io"
	"os"

	"github.com/raymyers/ralph-iloc/pkg/iloc"
	"github.com/raymyers/ralph-iloc/pkg/regalloc"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
)

var version = "0.1.0"

var (
	numRegisters int
	dILOC        bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ralph-iloc: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-iloc [file]",
		Short: "ralph-iloc maps virtual registers in ILOC code onto physical registers",
		Long: `ralph-iloc is the register-allocation phase of the ILOC backend.
It reads textual ILOC over virtual registers, performs local bottom-up
allocation with spill code insertion, and prints the rewritten program.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			prog, err := iloc.ParseProgram(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			// -diloc: dump the parsed program without allocating
			if dILOC {
				iloc.NewPrinter(out).PrintProgram(prog)
				return nil
			}

			if err := regalloc.TransformProgram(prog, numRegisters); err != nil {
				return err
			}
			iloc.NewPrinter(out).PrintProgram(prog)
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().IntVarP(&numRegisters, "registers", "r",
		env.Int("RALPH_ILOC_REGISTERS", 4), "Number of physical registers")
	rootCmd.Flags().BoolVar(&dILOC, "diloc", false, "Dump parsed ILOC before allocation")

	return rootCmd
}
