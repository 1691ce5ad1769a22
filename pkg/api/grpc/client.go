package grpcapi

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Result is a remote evaluation decoded from the Evaluate response.
type Result struct {
	ID         string
	Expression string
	Value      types.Value
	Display    string
	CreateTime time.Time
}

// Client calls a remote Calculator service.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient creates a client for the server at addr. The connection is
// plaintext.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Conn returns the underlying connection.
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Evaluate evaluates expression remotely. Calculator errors reported by the
// server are returned as *types.CalcError with their original tag and
// message.
func (c *Client) Evaluate(ctx context.Context, expression string) (*Result, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, evaluateMethod, wrapperspb.String(expression), out); err != nil {
		return nil, fromStatus(err)
	}
	return decodeResult(out)
}

// ListEvaluations returns the raw evaluation records held by the server,
// newest first.
func (c *Client) ListEvaluations(ctx context.Context, limit int) ([]map[string]any, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, listEvaluationsMethod, wrapperspb.Int32(int32(limit)), out); err != nil {
		return nil, fromStatus(err)
	}
	raw, _ := out.AsMap()["evaluations"].([]any)
	evs := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			evs = append(evs, m)
		}
	}
	return evs, nil
}

// fromStatus restores a *types.CalcError from a status carrying a tag
// detail. Other errors are returned unchanged.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || (st.Code() != codes.InvalidArgument && st.Code() != codes.Internal) {
		return err
	}
	for _, d := range st.Details() {
		if tag, ok := d.(*wrapperspb.StringValue); ok {
			return &types.CalcError{Tag: tag.GetValue(), Message: st.Message(), Pos: types.NoPos}
		}
	}
	return err
}

func decodeResult(st *structpb.Struct) (*Result, error) {
	fields := st.GetFields()
	res := &Result{
		ID:         fields["id"].GetStringValue(),
		Expression: fields["expression"].GetStringValue(),
		Display:    fields["display"].GetStringValue(),
	}

	typ, err := types.ParseValueType(fields["type"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	switch typ {
	case types.TypeBool:
		res.Value = types.NewBool(fields["value"].GetBoolValue())
	case types.TypeTime:
		res.Value = types.NewTime(fields["value"].GetNumberValue())
	default:
		res.Value = types.NewScalar(fields["value"].GetNumberValue())
	}

	if ts := fields["createTime"].GetStringValue(); ts != "" {
		res.CreateTime, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid createTime: %w", err)
		}
	}
	return res, nil
}
