package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/timecalc/pkg/annotate"
)

func newAnnotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [file]",
		Short: "Append results to each expression line of a file or stdin",
		Long: `Reads lines from file (stdin by default) and writes them to stdout with
" = <result>" appended. Comparisons get " # Correct!" or " # Incorrect!".
Lines that fail to evaluate are written unchanged and the error is reported
on stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnnotate,
	}
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}
	return annotateLines(in, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// annotateLines applies the calculator to every non-blank line of r.
func annotateLines(r io.Reader, w, errw io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			fmt.Fprintln(w, text)
			continue
		}

		out := annotate.Line(text)
		switch out.Kind {
		case annotate.Insert:
			fmt.Fprintln(w, text+out.Text)
		case annotate.Notify:
			fmt.Fprintln(w, text+" # "+out.Message)
		default:
			fmt.Fprintf(errw, "line %d: %s\n", lineNo, out.Message)
			fmt.Fprintln(w, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
