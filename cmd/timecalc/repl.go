package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/timecalc/pkg/repl"
	"github.com/lemonberrylabs/timecalc/pkg/runtime"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive calculator",
		Args:  cobra.NoArgs,
		RunE:  runRepl,
	}
}

func runRepl(cmd *cobra.Command, args []string) error {
	_, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := runtime.WithSource(cmd.Context(), "repl")

	// Piped input is evaluated line by line without the terminal UI.
	if f, ok := cmd.InOrStdin().(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		return repl.RunPlain(ctx, engine, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return repl.Run(ctx, engine)
}
