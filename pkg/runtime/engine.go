// Package runtime runs the calculator on behalf of the CLI and the servers:
// it adds logging, tracing, a result cache and the evaluation history around
// the pure expression engine.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lemonberrylabs/timecalc/pkg/expr"
	"github.com/lemonberrylabs/timecalc/pkg/observability"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// MaxExpressionLength is the maximum allowed length of an expression
// submitted over the network.
const MaxExpressionLength = 400

// DefaultCacheSize is the number of memoized results when none is configured.
const DefaultCacheSize = 256

// Options configures an Engine.
type Options struct {
	// Store receives every evaluation. Nil disables the history.
	Store *store.Store
	// CacheSize bounds the result cache. Zero selects DefaultCacheSize and a
	// negative value disables caching.
	CacheSize int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Observability selects the OpenTelemetry providers.
	Observability observability.Config
}

// Engine evaluates expressions and records them.
type Engine struct {
	store  *store.Store
	cache  *resultCache
	logger *slog.Logger
	inst   *observability.Instruments
}

// NewEngine creates a new evaluation engine.
func NewEngine(opts Options) *Engine {
	size := opts.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  opts.Store,
		cache:  newResultCache(size),
		logger: logger,
		inst:   observability.New(opts.Observability),
	}
}

// Store returns the engine's history, which may be nil.
func (e *Engine) Store() *store.Store {
	return e.store
}

// contextKey is an unexported type for context keys defined in this package.
type contextKey string

const sourceKey contextKey = "source"

// WithSource tags ctx with the name of the caller (cli, api, grpc, ...),
// which is attached to logs and spans.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey, source)
}

// sourceFromCtx returns the source stored in ctx, or "unknown".
func sourceFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(sourceKey).(string); ok {
		return v
	}
	return "unknown"
}

// ValidateExpression rejects input that is too long to be evaluated
// remotely.
func ValidateExpression(input string) error {
	if len(input) > MaxExpressionLength {
		return fmt.Errorf("expression exceeds maximum length of %d characters", MaxExpressionLength)
	}
	return nil
}

// Evaluate evaluates input and records the evaluation. When the expression
// itself is invalid, the returned evaluation is in the FAILED state and err
// is the *types.CalcError describing the problem. A nil evaluation is only
// returned together with a context error.
func (e *Engine) Evaluate(ctx context.Context, input string) (*store.Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := sourceFromCtx(ctx)
	start := time.Now()
	ctx, span := e.inst.StartEvaluation(ctx, input, source)

	entry, cached := e.cache.get(input)
	if !cached {
		v, err := expr.Calculate(input)
		entry = cacheEntry{input: input, value: v, err: err}
		e.cache.put(input, v, err)
	}
	elapsed := time.Since(start)

	ev := &store.Evaluation{
		Expression: input,
		Duration:   elapsed,
		Cached:     cached,
	}
	resultType, errTag := "", ""
	if entry.err != nil {
		errTag = types.TagOf(entry.err)
		ev.State = store.EvaluationFailed
		ev.Error = &store.EvaluationError{Tag: errTag, Message: entry.err.Error()}
	} else {
		v := entry.value
		resultType = v.Type().String()
		ev.State = store.EvaluationSucceeded
		ev.Result = &v
		ev.Display = expr.Format(v)
	}
	e.inst.EndEvaluation(ctx, span, resultType, errTag, cached, elapsed)

	if e.store != nil {
		e.store.Add(ev)
	}

	if entry.err != nil {
		level := slog.LevelDebug
		if errTag == types.TagInternalError {
			level = slog.LevelError
		}
		e.logger.Log(ctx, level, "evaluation failed",
			"source", source, "expression", input, "tag", errTag, "error", entry.err)
		return ev, entry.err
	}
	e.logger.Debug("evaluated expression",
		"source", source, "expression", input, "result", ev.Display,
		"cached", cached, "duration", elapsed)
	return ev, nil
}

// Calculate evaluates input and returns only its value.
func (e *Engine) Calculate(ctx context.Context, input string) (types.Value, error) {
	ev, err := e.Evaluate(ctx, input)
	if err != nil {
		return types.Value{}, err
	}
	return *ev.Result, nil
}
