package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/sheet"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <sheet.yaml>",
		Short: "Run the checks of a YAML or JSON sheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	_, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading sheet: %w", err)
	}
	sh, err := sheet.Parse(data)
	if err != nil {
		return err
	}

	report, err := sheet.Run(runtime.WithSource(cmd.Context(), "cli"), engine, sh)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if !report.OK() {
		return &exitError{code: 1}
	}
	return nil
}

func printReport(w io.Writer, report *sheet.Report) {
	if report.Name != "" {
		fmt.Fprintf(w, "%s\n", report.Name)
	}
	for _, r := range report.Results {
		mark := "PASS"
		if !r.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s: %s", mark, r.Name, r.Expression)
		switch {
		case r.Error != "":
			fmt.Fprintf(w, " (%s)", r.Error)
		case r.Expect != "":
			fmt.Fprintf(w, " = %s (expected %s)", r.Display, r.Expect)
		default:
			fmt.Fprintf(w, " = %s", r.Display)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d passed, %d failed\n", report.Passed, report.Failed)
}
