package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakosu/grackle/dsl"
	"github.com/hakosu/grackle/grammar"
	"github.com/hakosu/grackle/report"
)

var compileFlags = struct {
	output *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile <grammar file>",
		Short:   "Compile a grammar into its scanner and parser tables",
		Example: `  grackle compile calc.grackle -o calc.tables`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default <grammar name>.tables)")
	rootCmd.AddCommand(cmd)
}

func generateFromFile(grmPath string) (*grammar.GenerateResult, error) {
	f, err := os.Open(grmPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sourceName := strings.TrimSuffix(filepath.Base(grmPath), filepath.Ext(grmPath))
	g, err := dsl.ParseFile(f, grmPath, sourceName)
	if err != nil {
		return nil, err
	}

	sink := report.NewWriterSink(os.Stderr)
	sink.SourceName = sourceName
	return grammar.Generate(g, sink)
}

func runCompile(cmd *cobra.Command, args []string) error {
	res, err := generateFromFile(args[0])
	if err != nil {
		return err
	}

	outPath := *compileFlags.output
	if outPath == "" {
		outPath = res.Grammar.Name + ".tables"
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := res.Machine.Encode(out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%v: %v states, %v terminals, %v nonterminals\n",
		res.Grammar.Name, res.Machine.Parser.StateCount, res.Machine.Parser.TerminalCount, res.Machine.Parser.NonTerminalCount)
	return nil
}
