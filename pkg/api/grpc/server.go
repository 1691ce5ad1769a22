// Package grpcapi implements the timecalc.v1.Calculator gRPC service and a
// client for it. Messages are protobuf well-known types, so no generated code
// is required on either side.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "timecalc.v1.Calculator"

const (
	evaluateMethod        = "/" + ServiceName + "/Evaluate"
	listEvaluationsMethod = "/" + ServiceName + "/ListEvaluations"
)

// CalculatorServer is the server API for the Calculator service.
type CalculatorServer interface {
	// Evaluate evaluates the expression in the request and returns a struct
	// with the fields id, expression, state, type, value, display and
	// createTime.
	Evaluate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// ListEvaluations returns {"evaluations": [...]} newest first, at most
	// the requested number (0 means all).
	ListEvaluations(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
}

// CalculatorServiceDesc describes the Calculator service for
// grpc.Server.RegisterService.
var CalculatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CalculatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateHandler},
		{MethodName: "ListEvaluations", Handler: listEvaluationsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "timecalc/v1/calculator.proto",
}

func evaluateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculatorServer).Evaluate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listEvaluationsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CalculatorServer).ListEvaluations(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listEvaluationsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CalculatorServer).ListEvaluations(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements the Calculator and Health gRPC services.
type Server struct {
	engine *runtime.Engine
	logger *slog.Logger
	health *health.Server
	grpc   *grpc.Server
}

// New creates a new gRPC server around the given engine.
func New(engine *runtime.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		engine: engine,
		logger: logger,
		health: health.NewServer(),
	}

	gs := grpc.NewServer(grpc.UnaryInterceptor(srv.logCalls))
	gs.RegisterService(&CalculatorServiceDesc, srv)
	healthpb.RegisterHealthServer(gs, srv.health)
	srv.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// GracefulStop marks the services as not serving and gracefully stops the
// gRPC server.
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}

// --- Calculator Service ---

func (s *Server) Evaluate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	input := req.GetValue()
	if err := runtime.ValidateExpression(input); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	ev, err := s.engine.Evaluate(runtime.WithSource(ctx, "grpc"), input)
	if err != nil {
		return nil, toStatus(err)
	}
	return evaluationToStruct(ev)
}

func (s *Server) ListEvaluations(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.Struct, error) {
	var evs []*store.Evaluation
	if h := s.engine.Store(); h != nil {
		evs = h.List(int(req.GetValue()))
	}

	items := make([]any, len(evs))
	for i, ev := range evs {
		items[i] = evaluationFields(ev)
	}
	st, err := structpb.NewStruct(map[string]any{"evaluations": items})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

// toStatus converts an evaluation error into a gRPC status. Calculator
// errors carry their tag as a StringValue detail.
func toStatus(err error) error {
	var ce *types.CalcError
	if errors.As(err, &ce) {
		code := codes.InvalidArgument
		if !ce.IsUserError() {
			code = codes.Internal
		}
		st, detailErr := status.New(code, ce.Message).WithDetails(wrapperspb.String(ce.Tag))
		if detailErr != nil {
			return status.Error(code, ce.Message)
		}
		return st.Err()
	}
	if st := status.FromContextError(err); st.Code() != codes.Unknown {
		return st.Err()
	}
	return status.Error(codes.Internal, err.Error())
}

func evaluationFields(ev *store.Evaluation) map[string]any {
	fields := map[string]any{
		"id":         ev.ID,
		"expression": ev.Expression,
		"state":      string(ev.State),
		"createTime": ev.CreateTime.UTC().Format(time.RFC3339Nano),
	}
	if ev.Result != nil {
		fields["type"] = ev.Result.Type().String()
		fields["value"] = rawValue(*ev.Result)
		fields["display"] = ev.Display
	}
	if ev.Error != nil {
		fields["error"] = map[string]any{
			"tag":     ev.Error.Tag,
			"message": ev.Error.Message,
		}
	}
	return fields
}

func evaluationToStruct(ev *store.Evaluation) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(evaluationFields(ev))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return st, nil
}

func rawValue(v types.Value) any {
	if v.Type() == types.TypeBool {
		return v.Bool()
	}
	return v.Number()
}
