package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNullableUnmarshal(t *testing.T) {
	type payload struct {
		ValidUntil Nullable[time.Time] `json:"validUntil"`
		Limit      Nullable[int]       `json:"quantityLimit"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"validUntil": "2026-01-02T03:04:05Z", "quantityLimit": 10}`), &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !got.ValidUntil.Set || got.ValidUntil.Value == nil {
		t.Fatalf("expected validUntil set, got %+v", got.ValidUntil)
	}
	if got.Limit.Value == nil || *got.Limit.Value != 10 {
		t.Fatalf("expected limit 10, got %+v", got.Limit)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"validUntil": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.ValidUntil.Set || got.ValidUntil.Value != nil {
		t.Fatalf("expected explicit null, got %+v", got.ValidUntil)
	}
	if got.Limit.Set {
		t.Fatalf("expected missing limit to stay unset")
	}
}

func TestNullableApply(t *testing.T) {
	current := 5
	dst := &current

	Nullable[int]{}.Apply(&dst)
	if dst == nil || *dst != 5 {
		t.Fatalf("unset field must not change dst")
	}

	Nullable[int]{Set: true}.Apply(&dst)
	if dst != nil {
		t.Fatalf("explicit null must clear dst")
	}

	v := 8
	Nullable[int]{Set: true, Value: &v}.Apply(&dst)
	if dst == nil || *dst != 8 {
		t.Fatalf("expected 8, got %v", dst)
	}
}
