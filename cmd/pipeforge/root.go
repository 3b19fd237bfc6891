package main

import "github.com/spf13/cobra"

const appName = "pipeforge"

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "A local pipeline engine for build/CI automation with step-level debuggability",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(templatesCmd)
}
