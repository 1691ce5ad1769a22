// Package integration runs end-to-end tests against a running timecalc
// server:
//
//	timecalc serve --sheets-dir=./examples/sheets
//	TIMECALC_URL=http://localhost:8787 TIMECALC_GRPC_ADDR=localhost:8788 go test ./test/integration/
//
// Tests skip when no server answers on /healthz.
package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// testServer holds the base URL of a running timecalc instance for tests.
var testServer string

func init() {
	testServer = os.Getenv("TIMECALC_URL")
	if testServer == "" {
		testServer = "http://localhost:8787"
	}
	// Ensure the URL has a scheme.
	if !strings.HasPrefix(testServer, "http://") && !strings.HasPrefix(testServer, "https://") {
		testServer = "http://" + testServer
	}
}

var (
	probeOnce sync.Once
	probeErr  error
)

// requireServer skips the test when the server is not reachable.
func requireServer(t *testing.T) {
	t.Helper()
	probeOnce.Do(func() {
		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(strings.TrimRight(testServer, "/") + "/healthz")
		if err != nil {
			probeErr = err
			return
		}
		resp.Body.Close()
	})
	if probeErr != nil {
		t.Skipf("timecalc server not reachable at %s: %v", testServer, probeErr)
	}
}

// apiURL builds a full URL for the given API path.
func apiURL(path string) string {
	return strings.TrimRight(testServer, "/") + "/v1/" + path
}

// evaluation is the decoded evaluation resource.
type evaluation struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	State      string `json:"state"`
	Display    string `json:"display"`
	Result     struct {
		Type  string      `json:"type"`
		Value interface{} `json:"value"`
	} `json:"result"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Tag     string `json:"tag"`
	} `json:"error"`
}

// evaluate posts an expression and returns the status code and decoded body.
func evaluate(t *testing.T, expression string) (int, evaluation) {
	t.Helper()
	requireServer(t)

	data, _ := json.Marshal(map[string]string{"expression": expression})
	resp, err := http.Post(apiURL("evaluations"), "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("evaluate HTTP error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var ev evaluation
	if err := json.Unmarshal(body, &ev); err != nil {
		t.Fatalf("evaluate decode error: %v (%s)", err, body)
	}
	return resp.StatusCode, ev
}

// mustEvaluate evaluates an expression and fails the test on a non-200
// response. It returns the display string.
func mustEvaluate(t *testing.T, expression string) string {
	t.Helper()
	status, ev := evaluate(t, expression)
	if status != http.StatusOK {
		t.Fatalf("evaluate %q: expected 200, got %d: %s", expression, status, ev.Error.Message)
	}
	return ev.Display
}

// getJSON fetches url and decodes the JSON body.
func getJSON(t *testing.T, url string) (int, map[string]interface{}) {
	t.Helper()
	requireServer(t)

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("HTTP error: %v", err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}
