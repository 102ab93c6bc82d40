package main

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show <grammar file>",
		Short:   "Print the states, transitions, and conflicts of a grammar",
		Example: `  grackle show calc.grackle`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	res, err := generateFromFile(args[0])
	if err != nil {
		return err
	}
	res.Describe(cmd.OutOrStdout())
	return nil
}
