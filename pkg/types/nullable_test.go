package types

import (
	"encoding/json"
	"testing"
)

func TestNullableStringUnmarshal(t *testing.T) {
	type payload struct {
		Color NullableString `json:"color"`
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"color": "#ff0000"}`), &got); err != nil {
		t.Fatalf("unmarshal value: %v", err)
	}
	if !got.Color.Valid || got.Color.Value == nil || *got.Color.Value != "#ff0000" {
		t.Fatalf("expected valid color, got %+v", got.Color)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{"color": null}`), &got); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if !got.Color.Valid || got.Color.Value != nil {
		t.Fatalf("expected null to be valid but nil, got %+v", got.Color)
	}

	got = payload{}
	if err := json.Unmarshal([]byte(`{}`), &got); err != nil {
		t.Fatalf("unmarshal missing: %v", err)
	}
	if got.Color.Valid {
		t.Fatalf("expected invalid flag for missing field, got %+v", got.Color)
	}

	if err := json.Unmarshal([]byte(`{"color": 12}`), &got); err == nil {
		t.Fatal("expected error for non-string value")
	}
}
