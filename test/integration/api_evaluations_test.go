package integration

import (
	"net/http"
	"testing"
)

// TestAPIEvaluations_CreateAndGet verifies an evaluation can be fetched by
// the id returned on creation.
func TestAPIEvaluations_CreateAndGet(t *testing.T) {
	status, created := evaluate(t, "17:30 - 8:45")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if created.ID == "" || created.State != "SUCCEEDED" {
		t.Fatalf("unexpected evaluation %+v", created)
	}
	if created.Result.Type != "time" || created.Result.Value != float64(525) {
		t.Errorf("unexpected result %+v", created.Result)
	}

	status, got := getJSON(t, apiURL("evaluations/"+created.ID))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if got["id"] != created.ID || got["display"] != "8:45" {
		t.Errorf("unexpected evaluation %v", got)
	}
}

// TestAPIEvaluations_List verifies the newest evaluation is listed first.
func TestAPIEvaluations_List(t *testing.T) {
	mustEvaluate(t, "1:11 + 0:00")
	_, last := evaluate(t, "2:22 + 0:00")

	status, result := getJSON(t, apiURL("evaluations?pageSize=1"))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	items, _ := result["evaluations"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(items))
	}
	first, _ := items[0].(map[string]interface{})
	if first["id"] != last.ID {
		t.Errorf("expected newest evaluation %s first, got %v", last.ID, first["id"])
	}
}

// TestAPIEvaluations_GetNotFound verifies unknown ids return 404.
func TestAPIEvaluations_GetNotFound(t *testing.T) {
	status, result := getJSON(t, apiURL("evaluations/does-not-exist"))
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	errBody, _ := result["error"].(map[string]interface{})
	if errBody["status"] != "NOT_FOUND" {
		t.Errorf("unexpected error body %v", result)
	}
}
