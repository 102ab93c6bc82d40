package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "grackle",
	Short:         "grackle is an LALR(1) parser generator",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)

	return rootCmd.Execute()
}
