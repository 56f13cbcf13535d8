package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kristofer/minijs/internal/driver"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a guest source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := driver.NewWithLogger(logger)
		if err != nil {
			return err
		}
		result, err := d.EvalFile(args[0])
		if err != nil {
			return err
		}
		if result.IsThrown() {
			color.New(color.FgRed).Fprintf(os.Stderr, "uncaught: %s\n", d.Env.ToString(result.AsThrown()))
			os.Exit(1)
		}
		return nil
	},
}
