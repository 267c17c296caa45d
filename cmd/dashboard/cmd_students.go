package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kapu/student-insights-go/internal/adapter"
	"github.com/kapu/student-insights-go/internal/app"
	"github.com/spf13/cobra"
)

// studentsCmd lists identifiers, or prints one student's rows
var studentsCmd = &cobra.Command{
	Use:   "students [user_id]",
	Short: "List students in the loaded table",
	Long: `Without arguments, lists the distinct student identifiers in table order.
With an identifier, prints that student's rows as the aligned text the model
receives.

Examples:
  dashboard students
  dashboard students HPbnaEfnNBWDApP3aDyXfQel8y53`,
	Args: cobra.MaximumNArgs(1),
	RunE: listStudents,
}

func listStudents(cmd *cobra.Command, args []string) error {
	container, err := buildContainer(cmd, app.WithoutModels())
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		sel, columns, err := container.Analyzer.Record(ctx, args[0])
		if err != nil {
			return err
		}
		if !sel.Found {
			return fmt.Errorf("%s", sel.Message)
		}
		if jsonOut {
			return writeJSON(cmd, sel.Records)
		}
		fmt.Fprintln(out, adapter.FormatRecords(columns, sel.Records))
		return nil
	}

	ids, issues, err := container.Analyzer.Students(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(cmd, map[string]any{"students": ids, "issues": issues})
	}

	fmt.Fprintln(out, adapter.FormatStudentList(ids))
	for _, issue := range issues {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped line %d: %s\n", issue.Line, issue.Reason)
	}
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
