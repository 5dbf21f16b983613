package fake

import "testing"

func TestCallRecorder_Record(t *testing.T) {
	var r CallRecorder

	r.record("Add", "a", 1)
	r.record("Delete", "b")
	r.record("Add", "c")

	all := r.Calls("")
	if len(all) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(all))
	}

	adds := r.Calls("Add")
	if len(adds) != 2 {
		t.Fatalf("expected 2 Add calls, got %d", len(adds))
	}
	if adds[0].Args[0] != "a" {
		t.Errorf("expected first Add arg 'a', got %v", adds[0].Args[0])
	}
	if r.Count("Delete") != 1 {
		t.Errorf("expected 1 Delete call, got %d", r.Count("Delete"))
	}
	if r.Count("Launch") != 0 {
		t.Errorf("expected 0 Launch calls, got %d", r.Count("Launch"))
	}
}

func TestCallRecorder_Reset(t *testing.T) {
	var r CallRecorder

	r.record("Add")
	r.record("Delete")
	r.Reset()

	if len(r.Calls("")) != 0 {
		t.Errorf("expected 0 calls after reset, got %d", len(r.Calls("")))
	}
}
