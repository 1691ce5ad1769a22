package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "github.com/lemonberrylabs/timecalc/pkg/api/grpc"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// grpcEndpoint returns the gRPC endpoint address (host:port).
func grpcEndpoint() string {
	if ep := os.Getenv("TIMECALC_GRPC_ADDR"); ep != "" {
		return ep
	}
	return "localhost:8788"
}

func newGRPCClient(t *testing.T) (*grpcapi.Client, context.Context) {
	t.Helper()
	requireServer(t)

	client, err := grpcapi.NewClient(grpcEndpoint())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return client, ctx
}

// TestGRPC_Evaluate verifies the gRPC API returns the same result as REST.
func TestGRPC_Evaluate(t *testing.T) {
	client, ctx := newGRPCClient(t)

	res, err := client.Evaluate(ctx, "8:45 + 7:30")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Display != "16:15" || !res.Value.Equal(types.NewTime(975)) {
		t.Errorf("unexpected result %+v", res)
	}

	// Evaluations from both APIs share the history.
	status, got := getJSON(t, apiURL("evaluations/"+res.ID))
	if status != 200 || got["display"] != "16:15" {
		t.Errorf("expected gRPC evaluation in REST history, got %d %v", status, got)
	}
}

// TestGRPC_EvaluateError verifies calculator errors keep their tag.
func TestGRPC_EvaluateError(t *testing.T) {
	client, ctx := newGRPCClient(t)

	_, err := client.Evaluate(ctx, "1:00 * 1:00")
	var ce *types.CalcError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *types.CalcError, got %v", err)
	}
	if ce.Tag != types.TagTypeError || ce.Message != "Cannot multiply time with time" {
		t.Errorf("unexpected error %s %q", ce.Tag, ce.Message)
	}
}

// TestGRPC_Health verifies the standard health service is served.
func TestGRPC_Health(t *testing.T) {
	client, ctx := newGRPCClient(t)

	resp, err := healthpb.NewHealthClient(client.Conn()).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcapi.ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
}
