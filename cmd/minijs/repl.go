package main

import (
	"fmt"
	"io"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kristofer/minijs/internal/driver"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runREPL()
	},
}

func runREPL() error {
	d, err := driver.NewWithLogger(logger)
	if err != nil {
		return err
	}

	prompt := color.New(color.FgCyan, color.Bold).Sprint("minijs> ")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	okColor := color.New(color.FgGreen)
	errColor := color.New(color.FgRed)

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		result, err := d.Eval(line)
		if err != nil {
			errColor.Printf("error: %v\n", err)
			continue
		}
		if result.IsThrown() {
			errColor.Printf("uncaught: %s\n", d.Env.ToString(result.AsThrown()))
			continue
		}
		if result.IsUndefined() {
			continue
		}
		okColor.Println(fmt.Sprintf("=> %s", d.Env.ToString(result)))
	}
}
