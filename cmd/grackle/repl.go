package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/hakosu/grackle/driver/parser"
	"github.com/hakosu/grackle/report"
	"github.com/hakosu/grackle/tester"
)

func init() {
	cmd := &cobra.Command{
		Use:     "repl <grammar file>",
		Short:   "Interactively parse lines against a grammar",
		Example: `  grackle repl calc.grackle`,
		Args:    cobra.ExactArgs(1),
		RunE:    runRepl,
	}
	rootCmd.AddCommand(cmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	res, err := generateFromFile(args[0])
	if err != nil {
		return err
	}

	rl, err := readline.New(res.Grammar.Name + "> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%v: type input to parse, :trace to toggle the event trace, :quit to leave\n", res.Grammar.Name)

	trace := false
	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		switch strings.TrimSpace(line) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":trace":
			trace = !trace
			fmt.Fprintf(cmd.OutOrStdout(), "trace %v\n", onOff(trace))
			continue
		}

		result, err := tester.RunString(res.Machine, line, report.NewWriterSink(os.Stderr))
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			continue
		}
		if trace {
			fmt.Fprint(cmd.OutOrStdout(), result.Trace())
		}
		if result.Accepted() {
			parser.PrintTree(cmd.OutOrStdout(), result.Tree)
		} else {
			for _, synErr := range result.SyntaxErrors {
				fmt.Fprintf(cmd.OutOrStdout(), "syntax error at %v:%v: %v\n", synErr.Row, synErr.Col, synErr.Message)
			}
		}
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
