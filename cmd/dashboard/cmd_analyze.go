package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// analyzeCmd summarizes one or more students
var analyzeCmd = &cobra.Command{
	Use:   "analyze <user_id>...",
	Short: "Generate a strengths, opportunities and challenges summary",
	Long: `Selects the given students and prints the generated narrative.
One identifier uses the single-student instruction; several use the
comparative one.

Examples:
  dashboard analyze k80sL0U5EoTBkehsoelmECj96R73
  dashboard analyze k80sL0U5EoTBkehsoelmECj96R73 HPbnaEfnNBWDApP3aDyXfQel8y53 BoSgUNVn14XmlodWvZKU4WTH6mG2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, err := container.Analyzer.Analyze(ctx, args)
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Text)
	if result.Found {
		if len(result.Missing) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "not found: %s\n", strings.Join(result.Missing, ", "))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "(%s, %s)\n", result.Provider, result.Model)
	}
	return nil
}
