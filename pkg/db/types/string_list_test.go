package dbtypes

import "testing"

func TestStringListRoundTripPreservesOrder(t *testing.T) {
	in := StringList{"go", "sql", "react"}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out StringList
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out) != 3 || out[0] != "go" || out[2] != "react" {
		t.Fatalf("unexpected list %v", out)
	}
}

func TestStringListScanEdgeCases(t *testing.T) {
	var l StringList
	if err := l.Scan(nil); err != nil || len(l) != 0 {
		t.Fatalf("nil scan should produce empty list, got %v err=%v", l, err)
	}
	if err := l.Scan([]byte("null")); err != nil || l == nil {
		t.Fatalf("null scan should produce empty list, got %v err=%v", l, err)
	}
	if err := l.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if v, _ := StringList(nil).Value(); v != "[]" {
		t.Fatalf("nil list should persist as [], got %v", v)
	}
}
