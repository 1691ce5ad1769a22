// Package web provides the embedded web UI of the time calculator.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/timecalc/pkg/expr"
	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// historySize is the number of recent evaluations shown on the calculator
// page.
const historySize = 20

// Handler serves the web UI pages.
type Handler struct {
	engine  *runtime.Engine
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler.
func New(engine *runtime.Engine) *Handler {
	return &Handler{
		engine: engine,
		funcMap: template.FuncMap{
			"timeAgo":        timeAgo,
			"formatTime":     formatTime,
			"formatDuration": formatDuration,
			"stateClass":     stateClass,
			"stateIcon":      stateIcon,
			"truncate":       truncate,
			"verdictClass":   verdictClass,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page is parsed together with the layout so that define blocks
	// of different pages cannot collide.
	tmpl, err := template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.calculator)
	app.Post("/ui", h.submit)
	app.Get("/ui/evaluations/:id", h.evaluationDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type calculatorContent struct {
	Expression     string
	Result         *store.Evaluation
	Error          string
	ErrorTag       string
	History        []*store.Evaluation
	HistoryEnabled bool
	SucceededCount int
	FailedCount    int
}

type evaluationDetailContent struct {
	Evaluation *store.Evaluation
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) calculator(c *fiber.Ctx) error {
	return h.render(c, "calculator.html", "calculator", h.calculatorContent())
}

func (h *Handler) submit(c *fiber.Ctx) error {
	input := c.FormValue("expression")
	content := h.evaluate(c.UserContext(), input)
	if content.Error != "" && content.Result == nil {
		c.Status(400)
	}
	return h.render(c, "calculator.html", "calculator", content)
}

func (h *Handler) evaluate(ctx context.Context, input string) calculatorContent {
	if err := runtime.ValidateExpression(input); err != nil {
		content := h.calculatorContent()
		content.Expression = input
		content.Error = err.Error()
		return content
	}

	ev, err := h.engine.Evaluate(runtime.WithSource(ctx, "web"), input)
	// Read the history after evaluating so the new entry is listed.
	content := h.calculatorContent()
	content.Expression = input
	if err != nil {
		content.Error = err.Error()
		var ce *types.CalcError
		if errors.As(err, &ce) {
			content.ErrorTag = ce.Tag
		}
		return content
	}
	content.Result = ev
	return content
}

func (h *Handler) calculatorContent() calculatorContent {
	content := calculatorContent{}
	if s := h.engine.Store(); s != nil {
		content.HistoryEnabled = true
		content.History = s.List(historySize)
		content.SucceededCount, content.FailedCount = s.Counts()
	}
	return content
}

func (h *Handler) evaluationDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	var ev *store.Evaluation
	err := errors.New("evaluation history is disabled")
	if s := h.engine.Store(); s != nil {
		ev, err = s.Get(id)
	}
	if err != nil {
		c.Status(404)
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Evaluation '%s' not found", id),
		})
	}

	return h.render(c, "evaluation.html", "calculator", evaluationDetailContent{
		Evaluation: ev,
	})
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func stateClass(state store.EvaluationState) string {
	switch state {
	case store.EvaluationSucceeded:
		return "state-succeeded"
	case store.EvaluationFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state store.EvaluationState) template.HTML {
	switch state {
	case store.EvaluationSucceeded:
		return "&#10003;"
	case store.EvaluationFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

// verdictClass styles the display of an evaluation: comparisons get a
// verdict colour, everything else the plain result style.
func verdictClass(ev *store.Evaluation) string {
	if ev == nil || !ev.Verdict() {
		return "result"
	}
	if ev.Display == expr.VerdictCorrect {
		return "verdict-correct"
	}
	return "verdict-incorrect"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
