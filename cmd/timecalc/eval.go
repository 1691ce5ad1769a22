package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	grpcapi "github.com/lemonberrylabs/timecalc/pkg/api/grpc"
	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

type evalOutput struct {
	Expression string      `json:"expression"`
	Result     types.Value `json:"result"`
	Display    string      `json:"display"`
}

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <expression...>",
		Short: "Evaluate an expression and print the result",
		Example: `  timecalc eval 17:30 - 8:45
  timecalc eval "8:45 + 7:30 = 16:15"
  timecalc eval --remote localhost:8788 "2 * 1:30"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runEval,
	}
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	cmd.Flags().String("remote", "", "Evaluate through the gRPC API at this address")
	cmd.Flags().Duration("timeout", 10*time.Second, "Timeout for remote evaluation")
	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	_, _, engine, err := setup(cmd)
	if err != nil {
		return err
	}
	input := strings.Join(args, " ")
	asJSON, _ := cmd.Flags().GetBool("json")

	var out evalOutput
	if remote, _ := cmd.Flags().GetString("remote"); remote != "" {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		out, err = evalRemote(cmd.Context(), remote, input, timeout)
	} else {
		out, err = evalLocal(cmd.Context(), engine, input)
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
		return &exitError{code: 1}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintln(cmd.OutOrStdout(), out.Display)
	return nil
}

func evalLocal(ctx context.Context, engine *runtime.Engine, input string) (evalOutput, error) {
	ev, err := engine.Evaluate(runtime.WithSource(ctx, "cli"), input)
	if err != nil {
		return evalOutput{}, err
	}
	return evalOutput{Expression: input, Result: *ev.Result, Display: ev.Display}, nil
}

func evalRemote(ctx context.Context, addr, input string, timeout time.Duration) (evalOutput, error) {
	client, err := grpcapi.NewClient(addr)
	if err != nil {
		return evalOutput{}, err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := client.Evaluate(ctx, input)
	if err != nil {
		return evalOutput{}, err
	}
	return evalOutput{Expression: input, Result: res.Value, Display: res.Display}, nil
}
