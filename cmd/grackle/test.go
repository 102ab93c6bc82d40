package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hakosu/grackle/report"
	"github.com/hakosu/grackle/tester"
)

func init() {
	cmd := &cobra.Command{
		Use:     "test <grammar file> <input file>",
		Short:   "Parse an input and print the parse trace",
		Example: `  grackle test calc.grackle input.txt`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	res, err := generateFromFile(args[0])
	if err != nil {
		return err
	}

	in, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer in.Close()

	result, err := tester.Run(res.Machine, in, report.NewWriterSink(os.Stderr))
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Trace())
	if !result.Accepted() {
		return fmt.Errorf("input was not accepted")
	}
	return nil
}
