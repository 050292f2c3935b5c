package agentctx

import (
	"context"
	"testing"
)

func TestSessionIDDefaultsEmpty(t *testing.T) {
	if got := SessionID(context.Background()); got != "" {
		t.Errorf("expected empty session id, got %q", got)
	}
}

func TestWithSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")
	if got := SessionID(ctx); got != "sess-1" {
		t.Errorf("expected sess-1, got %q", got)
	}
}

func TestDepthDefaultsZero(t *testing.T) {
	if got := Depth(context.Background()); got != 0 {
		t.Errorf("expected depth 0, got %d", got)
	}
}

func TestChildScope(t *testing.T) {
	parent := WithSessionID(WithDepth(context.Background(), 1), "sess-1")

	child := ChildScope(parent)
	if got := Depth(child); got != 2 {
		t.Errorf("expected child depth 2, got %d", got)
	}
	if got := SessionID(child); got != "" {
		t.Errorf("expected child session id cleared, got %q", got)
	}

	// Parent scope must be untouched.
	if got := Depth(parent); got != 1 {
		t.Errorf("parent depth changed: %d", got)
	}
	if got := SessionID(parent); got != "sess-1" {
		t.Errorf("parent session id changed: %q", got)
	}
}

func TestChildScopeNesting(t *testing.T) {
	ctx := context.Background()
	for want := 1; want <= 3; want++ {
		ctx = ChildScope(ctx)
		if got := Depth(ctx); got != want {
			t.Fatalf("nesting level %d: got depth %d", want, got)
		}
	}
}
