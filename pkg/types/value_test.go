package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestValueEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{NewTime(60), NewClock(1, 0), true},
		{NewTime(60), NewScalar(60), false},
		{NewScalar(2.5), NewScalar(2.5), true},
		{NewBool(true), NewBool(true), true},
		{NewBool(true), NewBool(false), false},
		{NewBool(false), NewScalar(0), false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		value Value
		json  string
	}{
		{NewTime(120), `{"type":"time","value":120}`},
		{NewTime(-2.5), `{"type":"time","value":-2.5}`},
		{NewScalar(3), `{"type":"scalar","value":3}`},
		{NewBool(true), `{"type":"boolean","value":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.json, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("got %s, want %s", data, tt.json)
			}
			var back Value
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !back.Equal(tt.value) {
				t.Errorf("decoded %v, want %v", back, tt.value)
			}
		})
	}
}

func TestValueJSONErrors(t *testing.T) {
	if _, err := json.Marshal(NewTime(math.Inf(1))); err == nil {
		t.Error("expected error for infinite time")
	}
	var v Value
	if err := json.Unmarshal([]byte(`{"type":"duration","value":1}`), &v); err == nil {
		t.Error("expected error for unknown type")
	}
	if err := json.Unmarshal([]byte(`{"type":"boolean","value":1}`), &v); err == nil {
		t.Error("expected error for non-bool boolean payload")
	}
}

func TestCalcErrorTags(t *testing.T) {
	err := fmt.Errorf("evaluating %q: %w", "1:00 * 1:00", NewTypeError("Cannot multiply time with time"))
	if got := TagOf(err); got != TagTypeError {
		t.Errorf("TagOf = %q, want %q", got, TagTypeError)
	}
	if TagOf(errors.New("plain")) != "" {
		t.Error("expected empty tag for plain error")
	}

	var ce *CalcError
	if !errors.As(err, &ce) {
		t.Fatal("expected CalcError in chain")
	}
	if !ce.HasTag(TagTypeError) || !ce.IsUserError() {
		t.Error("expected user-facing TypeError")
	}
	if NewInternalError("Unknown node type: %s", "x").IsUserError() {
		t.Error("internal errors are not user errors")
	}
	if msg := NewEmptyInputError().Error(); msg != "No expression to parse!" {
		t.Errorf("unexpected message %q", msg)
	}
}
