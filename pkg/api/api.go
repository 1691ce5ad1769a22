// Package api implements the REST API of the time calculator.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/sheet"
	"github.com/lemonberrylabs/timecalc/pkg/store"
	"github.com/lemonberrylabs/timecalc/pkg/types"
)

// Config holds the HTTP server settings.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// Server is the REST API server.
type Server struct {
	app    *fiber.App
	engine *runtime.Engine
	logger *slog.Logger

	mu     sync.RWMutex
	sheets map[string]*sheet.Sheet // loaded by LoadSheets
}

// New creates a new API server around the given engine.
func New(engine *runtime.Engine, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	srv := &Server{
		engine: engine,
		logger: logger,
		sheets: make(map[string]*sheet.Sheet),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
	})

	// Evaluations API
	app.Post("/v1/evaluations", srv.createEvaluation)
	app.Get("/v1/evaluations", srv.listEvaluations)
	app.Get("/v1/evaluations/:id", srv.getEvaluation)
	app.Delete("/v1/evaluations", srv.clearEvaluations)

	// Sheets API
	app.Post("/v1/sheets\\:run", srv.runSheet)
	app.Get("/v1/sheets", srv.listSheets)
	app.Post("/v1/sheets/:name\\:run", srv.runNamedSheet)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing and for mounting
// the web UI).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Evaluation Handlers ---

type evaluateRequest struct {
	Expression string `json:"expression"`
}

func (s *Server) createEvaluation(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), "")
	}
	if err := runtime.ValidateExpression(req.Expression); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", err.Error(), "")
	}

	ctx := runtime.WithSource(c.UserContext(), "api")
	ev, err := s.engine.Evaluate(ctx, req.Expression)
	if err != nil {
		return evaluationError(c, err)
	}
	return c.JSON(evaluationToJSON(ev))
}

func (s *Server) getEvaluation(c *fiber.Ctx) error {
	h := s.engine.Store()
	if h == nil {
		return errorJSON(c, 404, "NOT_FOUND", "evaluation history is disabled", "")
	}
	ev, err := h.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, 404, "NOT_FOUND", err.Error(), "")
	}
	return c.JSON(evaluationToJSON(ev))
}

func (s *Server) listEvaluations(c *fiber.Ctx) error {
	var evs []*store.Evaluation
	if h := s.engine.Store(); h != nil {
		evs = h.List(c.QueryInt("pageSize", 0))
	}

	items := make([]fiber.Map, len(evs))
	for i, ev := range evs {
		items[i] = evaluationToJSON(ev)
	}
	return c.JSON(fiber.Map{
		"evaluations": items,
	})
}

func (s *Server) clearEvaluations(c *fiber.Ctx) error {
	if h := s.engine.Store(); h != nil {
		h.Clear()
	}
	return c.JSON(fiber.Map{})
}

// --- Sheet Handlers ---

func (s *Server) runSheet(c *fiber.Ctx) error {
	sh, err := sheet.Parse(c.Body())
	if err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", err.Error(), "")
	}
	return s.writeReport(c, sh)
}

func (s *Server) runNamedSheet(c *fiber.Ctx) error {
	name := c.Params("name")
	s.mu.RLock()
	sh, ok := s.sheets[name]
	s.mu.RUnlock()
	if !ok {
		return errorJSON(c, 404, "NOT_FOUND", fmt.Sprintf("sheet '%s' not found", name), "")
	}
	return s.writeReport(c, sh)
}

func (s *Server) listSheets(c *fiber.Ctx) error {
	s.mu.RLock()
	names := make([]string, 0, len(s.sheets))
	for name := range s.sheets {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]fiber.Map, len(names))
	for i, name := range names {
		sh := s.sheets[name]
		items[i] = fiber.Map{
			"name":   name,
			"title":  sh.Name,
			"checks": len(sh.Checks),
		}
	}
	s.mu.RUnlock()
	return c.JSON(fiber.Map{"sheets": items})
}

func (s *Server) writeReport(c *fiber.Ctx, sh *sheet.Sheet) error {
	for _, chk := range sh.Checks {
		if err := runtime.ValidateExpression(chk.Expression); err != nil {
			return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("check '%s': %v", chk.Name, err), "")
		}
	}
	ctx := runtime.WithSource(c.UserContext(), "api")
	report, err := sheet.Run(ctx, s.engine, sh)
	if err != nil {
		return errorJSON(c, 500, "INTERNAL", err.Error(), "")
	}
	return c.JSON(report)
}

// --- Directory Loading ---

var validSheetName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// LoadSheets loads all .yaml, .yml and .json sheets from dir. The file name
// (sans extension, lowercased) becomes the sheet name used in
// /v1/sheets/{name}:run. Unreadable or invalid files are skipped with a
// warning.
func (s *Server) LoadSheets(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading sheets directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		ext := filepath.Ext(file)
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		name := strings.ToLower(strings.TrimSuffix(file, ext))
		if !validSheetName.MatchString(name) || len(name) > 128 {
			s.logger.Warn("skipping sheet with invalid name", "file", file, "name", name)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			s.logger.Warn("could not read sheet", "file", file, "error", err)
			continue
		}
		sh, err := sheet.Parse(data)
		if err != nil {
			s.logger.Warn("could not parse sheet", "file", file, "error", err)
			continue
		}

		s.mu.Lock()
		s.sheets[name] = sh
		s.mu.Unlock()
		loaded++
		s.logger.Info("loaded sheet", "name", name, "file", file, "checks", len(sh.Checks))
	}
	return loaded, nil
}

// --- Helpers ---

// evaluationError maps an evaluation error to an HTTP response: 400 for
// problems with the expression, 500 for broken invariants and 499 for a
// cancelled request.
func evaluationError(c *fiber.Ctx, err error) error {
	var ce *types.CalcError
	switch {
	case errors.As(err, &ce) && ce.IsUserError():
		return errorJSON(c, 400, "INVALID_ARGUMENT", ce.Message, ce.Tag)
	case errors.As(err, &ce):
		return errorJSON(c, 500, "INTERNAL", ce.Message, ce.Tag)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorJSON(c, 499, "CANCELLED", err.Error(), "")
	default:
		return errorJSON(c, 500, "INTERNAL", err.Error(), "")
	}
}

func errorJSON(c *fiber.Ctx, code int, status, message, tag string) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
		"status":  status,
	}
	if tag != "" {
		body["tag"] = tag
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

func evaluationToJSON(ev *store.Evaluation) fiber.Map {
	result := fiber.Map{
		"id":         ev.ID,
		"expression": ev.Expression,
		"state":      ev.State,
		"createTime": ev.CreateTime.Format(time.RFC3339),
	}
	if ev.Result != nil {
		result["result"] = ev.Result
		result["display"] = ev.Display
	}
	if ev.Error != nil {
		result["error"] = fiber.Map{
			"tag":     ev.Error.Tag,
			"message": ev.Error.Message,
		}
	}
	if ev.Cached {
		result["cached"] = true
	}
	return result
}
