package uid

import (
	"sync"
	"testing"
)

func TestInternIdentity(t *testing.T) {
	r := NewRegistry()

	a := r.Intern("sel")
	b := r.Intern("sel")
	c := r.Intern("insert")

	if a != b {
		t.Error("Intern() of equal strings should return equal UIDs")
	}
	if a == c {
		t.Error("Intern() of different strings should return different UIDs")
	}
	if a.String() != "sel" {
		t.Errorf("String() = %q, want %q", a.String(), "sel")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistriesAreIsolated(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()

	if r1.Intern("x") == r2.Intern("x") {
		t.Error("UIDs from different registries should differ")
	}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup() found a string that was never interned")
	}
	want := r.Intern("here")
	got, ok := r.Lookup("here")
	if !ok || got != want {
		t.Errorf("Lookup() = %v, %v; want %v, true", got, ok, want)
	}
}

func TestZero(t *testing.T) {
	var u UID
	if !u.IsZero() {
		t.Error("zero UID should report IsZero")
	}
	if u.String() != "" {
		t.Errorf("zero UID String() = %q, want empty", u.String())
	}
}

func TestConcurrentIntern(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	results := make([]UID, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.Intern("shared")
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Intern() returned different UIDs")
		}
	}
}
