package web

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/timecalc/pkg/runtime"
	"github.com/lemonberrylabs/timecalc/pkg/store"
)

func setupTestApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	s := store.New(50)
	h := New(runtime.NewEngine(runtime.Options{Store: s}))
	app := fiber.New()
	h.Register(app)
	return app, s
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func submit(t *testing.T, app *fiber.App, expression string) (int, string) {
	t.Helper()
	form := url.Values{"expression": {expression}}
	req := httptest.NewRequest("POST", "/ui", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestCalculatorEmpty(t *testing.T) {
	app, _ := setupTestApp(t)

	status, html := get(t, app, "/ui")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, html)
	}
	if !strings.Contains(html, "Calculator") {
		t.Error("expected Calculator heading in response")
	}
	if !strings.Contains(html, "Timecalc") {
		t.Error("expected brand in response")
	}
	if !strings.Contains(html, "No evaluations yet") {
		t.Error("expected empty state message")
	}
}

func TestSubmitResult(t *testing.T) {
	app, s := setupTestApp(t)

	status, html := submit(t, app, "17:30 - 8:45")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, html)
	}
	if !strings.Contains(html, `<div class="result">8:45</div>`) {
		t.Error("expected result in response")
	}
	if !strings.Contains(html, `value="17:30 - 8:45"`) {
		t.Error("expected expression to be kept in the form")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 stored evaluation, got %d", s.Len())
	}
	if !strings.Contains(html, "1 succeeded, 0 failed") {
		t.Error("expected history counts in response")
	}
}

func TestSubmitVerdict(t *testing.T) {
	app, _ := setupTestApp(t)

	_, html := submit(t, app, "8:45 + 7:30 = 16:15")
	if !strings.Contains(html, `<div class="verdict-correct">Correct!</div>`) {
		t.Error("expected correct verdict")
	}

	_, html = submit(t, app, "8:45 + 7:30 = 16:00")
	if !strings.Contains(html, `<div class="verdict-incorrect">Incorrect!</div>`) {
		t.Error("expected incorrect verdict")
	}
}

func TestSubmitError(t *testing.T) {
	app, s := setupTestApp(t)

	status, html := submit(t, app, "1:00 * 1:00")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(html, "Cannot multiply time with time") {
		t.Error("expected error message in response")
	}
	if !strings.Contains(html, "TypeError") {
		t.Error("expected error tag in response")
	}
	if s.Len() != 1 {
		t.Errorf("expected failed evaluation to be stored, got %d", s.Len())
	}

	status, html = submit(t, app, strings.Repeat("1", runtime.MaxExpressionLength+1))
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(html, "maximum length") {
		t.Error("expected length error in response")
	}
	if s.Len() != 1 {
		t.Errorf("expected rejected input not to be stored, got %d", s.Len())
	}
}

func TestEvaluationDetail(t *testing.T) {
	app, s := setupTestApp(t)

	submit(t, app, "2 * 1:30")
	evs := s.List(1)
	if len(evs) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(evs))
	}

	status, html := get(t, app, "/ui/evaluations/"+evs[0].ID)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(html, evs[0].ID) {
		t.Error("expected evaluation id in response")
	}
	if !strings.Contains(html, "3:00") {
		t.Error("expected result in response")
	}
	if !strings.Contains(html, "SUCCEEDED") {
		t.Error("expected state in response")
	}
}

func TestEvaluationNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	status, html := get(t, app, "/ui/evaluations/nonexistent")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if !strings.Contains(html, "Not found") {
		t.Error("expected not found message")
	}
}

func TestHistoryDisabled(t *testing.T) {
	app := fiber.New()
	New(runtime.NewEngine(runtime.Options{})).Register(app)

	_, html := get(t, app, "/ui")
	if !strings.Contains(html, "History is disabled") {
		t.Error("expected disabled history message")
	}
	if status, _ := get(t, app, "/ui/evaluations/x"); status != 404 {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestRootRedirect(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if loc != "/ui" {
		t.Fatalf("expected redirect to /ui, got %s", loc)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("1:00 + 2:00 + 3:00", 4); got != "1:00..." {
		t.Errorf("got %q", got)
	}
}
