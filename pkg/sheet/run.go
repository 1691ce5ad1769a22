package sheet

import (
	"context"
	"fmt"

	"github.com/lemonberrylabs/timecalc/pkg/expr"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Evaluator evaluates a single expression. *runtime.Engine implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, input string) (*store.Evaluation, error)
}

// Result is the outcome of one check.
type Result struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Display    string `json:"display,omitempty"`
	Expect     string `json:"expect,omitempty"`
	Passed     bool   `json:"passed"`
	Error      string `json:"error,omitempty"`
}

// Report is the outcome of running a sheet.
type Report struct {
	Name    string   `json:"name"`
	Results []Result `json:"results"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Run evaluates every check of s in order. A check passes when its
// expression evaluates and, if Expect is set, the expected expression
// evaluates to an equal value. A check without Expect whose expression is a
// comparison passes only when the comparison holds. Run stops early only
// when ctx is done.
func Run(ctx context.Context, eval Evaluator, s *Sheet) (*Report, error) {
	report := &Report{Name: s.Name, Results: make([]Result, 0, len(s.Checks))}
	for _, c := range s.Checks {
		res, err := runCheck(ctx, eval, c)
		if err != nil {
			return report, err
		}
		if res.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func runCheck(ctx context.Context, eval Evaluator, c Check) (Result, error) {
	res := Result{Name: c.Name, Expression: c.Expression, Expect: c.Expect}

	ev, err := eval.Evaluate(ctx, c.Expression)
	if ev == nil {
		return res, err
	}
	if err != nil {
		res.Error = err.Error()
		return res, nil
	}
	res.Display = ev.Display
	got := *ev.Result

	if c.Expect == "" {
		res.Passed = got.Type() != types.TypeBool || got.Bool()
		return res, nil
	}

	want, err := expected(c.Expect)
	if err != nil {
		res.Error = fmt.Sprintf("invalid expect %q: %v", c.Expect, err)
		return res, nil
	}
	res.Passed = got.Equal(want)
	return res, nil
}

// expected evaluates the Expect text of a check. Verdict strings stand for
// boolean values.
func expected(text string) (types.Value, error) {
	switch text {
	case expr.VerdictCorrect:
		return types.NewBool(true), nil
	case expr.VerdictIncorrect:
		return types.NewBool(false), nil
	}
	return expr.Calculate(text)
}
