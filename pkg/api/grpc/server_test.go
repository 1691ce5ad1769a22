package grpcapi

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

func startTestServer(t *testing.T) (string, func()) {
	t.Helper()
	engine := runtime.NewEngine(runtime.Options{Store: store.New(20)})
	srv := New(engine, nil)

	lis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go srv.grpc.Serve(lis)

	return lis.Addr().String(), func() {
		srv.grpc.Stop()
	}
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	client, err := NewClient(addr)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return client
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestEvaluate(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()
	ctx := testContext(t)

	tests := []struct {
		input   string
		want    types.Value
		display string
	}{
		{"17:30 - 8:45", types.NewTime(525), "8:45"},
		{"2 * 3", types.NewScalar(6), "6"},
		{"8:45 + 7:30 = 16:15", types.NewBool(true), "Correct!"},
		{"1:00 = 2:00", types.NewBool(false), "Incorrect!"},
	}
	for _, tt := range tests {
		res, err := client.Evaluate(ctx, tt.input)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tt.input, err)
		}
		if !res.Value.Equal(tt.want) {
			t.Errorf("Evaluate(%q) = %v, want %v", tt.input, res.Value, tt.want)
		}
		if res.Display != tt.display {
			t.Errorf("Evaluate(%q) display = %q, want %q", tt.input, res.Display, tt.display)
		}
		if res.ID == "" {
			t.Errorf("Evaluate(%q): expected an id", tt.input)
		}
		if res.CreateTime.IsZero() {
			t.Errorf("Evaluate(%q): expected a create time", tt.input)
		}
		if res.CreateTime.Location() != time.UTC {
			t.Errorf("Evaluate(%q): expected a UTC create time, got %v", tt.input, res.CreateTime.Location())
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()
	ctx := testContext(t)

	tests := []struct {
		input   string
		tag     string
		message string
	}{
		{"", types.TagEmptyInputError, "No expression to parse!"},
		{"1:30 x", types.TagLexError, "Unexpected character: 'x' at pos 5"},
		{"1:00 * 1:00", types.TagTypeError, "Cannot multiply time with time"},
		{"1 / 0", types.TagZeroDivisionError, "Cannot divide by zero"},
	}
	for _, tt := range tests {
		_, err := client.Evaluate(ctx, tt.input)
		var ce *types.CalcError
		if !errors.As(err, &ce) {
			t.Fatalf("Evaluate(%q): expected *types.CalcError, got %v", tt.input, err)
		}
		if ce.Tag != tt.tag || ce.Message != tt.message {
			t.Errorf("Evaluate(%q) = %s %q, want %s %q", tt.input, ce.Tag, ce.Message, tt.tag, tt.message)
		}
	}
}

func TestEvaluateStatusCodes(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()
	ctx := testContext(t)

	out := new(structpb.Struct)
	err := client.Conn().Invoke(ctx, evaluateMethod, wrapperspb.String("1:00 +"), out)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}

	long := make([]byte, runtime.MaxExpressionLength+1)
	for i := range long {
		long[i] = '1'
	}
	err = client.Conn().Invoke(ctx, evaluateMethod, wrapperspb.String(string(long)), out)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument for long input, got %v", err)
	}
	var ce *types.CalcError
	if errors.As(fromStatus(err), &ce) {
		t.Error("length errors carry no calculator tag")
	}
}

func TestListEvaluations(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()
	ctx := testContext(t)

	for _, in := range []string{"1:00", "2:00", "1:00 * 1:00"} {
		client.Evaluate(ctx, in)
	}

	evs, err := client.ListEvaluations(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvaluations: %v", err)
	}
	if len(evs) != 3 {
		t.Fatalf("expected 3 evaluations, got %d", len(evs))
	}
	if evs[0]["expression"] != "1:00 * 1:00" || evs[0]["state"] != "FAILED" {
		t.Errorf("unexpected newest evaluation %v", evs[0])
	}
	if _, ok := evs[0]["error"].(map[string]any); !ok {
		t.Errorf("expected error details on failed evaluation, got %v", evs[0])
	}

	evs, err = client.ListEvaluations(ctx, 1)
	if err != nil {
		t.Fatalf("ListEvaluations: %v", err)
	}
	if len(evs) != 1 {
		t.Errorf("expected 1 evaluation, got %d", len(evs))
	}
}

func TestHealth(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	client := dial(t, addr)
	defer client.Close()

	resp, err := healthpb.NewHealthClient(client.Conn()).Check(testContext(t), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
}
