package cronrunner

import (
	"context"
	"testing"
)

func TestRunner_AddRejectsBadSpec(t *testing.T) {
	r := New(nil, context.Background())
	if _, err := r.Add("pipeline", "not a spec", func(context.Context) {}); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if _, err := r.Add("pipeline", "0 30 16 * * 1-5", func(context.Context) {}); err != nil {
		t.Fatalf("Add err=%v", err)
	}
	if r.entries() != 1 {
		t.Fatalf("entries=%d want=1", r.entries())
	}
}
