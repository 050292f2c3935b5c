package registry

import (
	"testing"
)

func TestRegisterAndGet(t *testing.T) {
	r := NewBaseRegistry[int]()
	if err := r.Register("a", 1); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	got, ok := r.Get("a")
	if !ok || got != 1 {
		t.Errorf("expected (1, true), got (%d, %v)", got, ok)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewBaseRegistry[int]()
	if err := r.Register("a", 1); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := r.Register("a", 2); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := NewBaseRegistry[int]()
	if err := r.Register("", 1); err == nil {
		t.Error("expected empty name to fail")
	}
}

func TestSetOverrides(t *testing.T) {
	r := NewBaseRegistry[int]()
	r.Set("a", 1)
	r.Set("a", 2)

	got, _ := r.Get("a")
	if got != 2 {
		t.Errorf("expected override to 2, got %d", got)
	}
	if r.Count() != 1 {
		t.Errorf("expected count 1, got %d", r.Count())
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewBaseRegistry[int]()
	r.Set("c", 3)
	r.Set("a", 1)
	r.Set("b", 2)

	names := r.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestRemove(t *testing.T) {
	r := NewBaseRegistry[int]()
	r.Set("a", 1)
	r.Remove("a")

	if _, ok := r.Get("a"); ok {
		t.Error("expected removed entry to be gone")
	}
}
