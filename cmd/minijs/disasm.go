package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kristofer/minijs/internal/bytecode"
	"github.com/kristofer/minijs/internal/microcompile"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Compile a source file and print its bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		mod, err := microcompile.Compile(string(data))
		if err != nil {
			return err
		}
		printDisassembly(mod)
		return nil
	},
}

func printDisassembly(mod *bytecode.Module) {
	fmt.Printf("literals (%d):\n", len(mod.Literals))
	for i, lit := range mod.Literals {
		fmt.Printf("  [%d] %s\n", i, lit.Kind())
	}
	for _, fn := range mod.Functions {
		fmt.Printf("\nfunction %s (id=%d, nargs=%d, max_stack=%d):\n", fn.Name, fn.ID, fn.NArgs, fn.MaxStack)
		pc := 0
		for pc < len(fn.Bytecode) {
			word := fn.Bytecode[pc]
			op := bytecode.Opcode(word)
			if !op.Valid() {
				fmt.Printf("  %4d: <invalid %d>\n", pc, word)
				pc++
				continue
			}
			if op.HasArg() && pc+1 < len(fn.Bytecode) {
				fmt.Printf("  %4d: %s %d\n", pc, op, fn.Bytecode[pc+1])
				pc += 2
			} else {
				fmt.Printf("  %4d: %s\n", pc, op)
				pc++
			}
		}
	}
}
