package synchronizer

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestLockedAlwaysSameIndex(t *testing.T) {
	s, err := New(TypeLocked, 5, newRand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := s.Next()
	for i := 0; i < 20; i++ {
		if got := s.Next(); got != first {
			t.Fatalf("locked synchronizer moved from %d to %d", first, got)
		}
	}
}

func TestDeckDealsEachIndexOncePerCycle(t *testing.T) {
	const n = 7
	s, err := New(TypeDeck, n, newRand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for cycle := 0; cycle < 4; cycle++ {
		seen := make(map[int]bool)
		for i := 0; i < n; i++ {
			idx := s.Next()
			if idx < 0 || idx >= n {
				t.Fatalf("index %d out of range", idx)
			}
			if seen[idx] {
				t.Fatalf("cycle %d dealt %d twice", cycle, idx)
			}
			seen[idx] = true
		}
	}
}

func TestCyclicDeckRepeatsSequence(t *testing.T) {
	const n = 5
	s, err := New(TypeCyclicDeck, n, newRand())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := make([]int, n)
	for i := range first {
		first[i] = s.Next()
	}
	for round := 0; round < 3; round++ {
		for i := 0; i < n; i++ {
			if got := s.Next(); got != first[i] {
				t.Fatalf("round %d position %d = %d, want %d", round, i, got, first[i])
			}
		}
	}
}

func TestParseType(t *testing.T) {
	for name, want := range map[string]Type{"locked": TypeLocked, " deck": TypeDeck, "cdeck": TypeCyclicDeck} {
		got, err := ParseType(name)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %q, %v", name, got, err)
		}
	}
	if _, err := ParseType("shuffle"); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(newRand())
	if _, _, err := r.Resolve("missing", "", 2, false); err == nil {
		t.Fatalf("expected error creating synchronizer without a type")
	}
	s, created, err := r.Resolve("test", TypeLocked, 2, true)
	if err != nil || !created {
		t.Fatalf("Resolve = %v, %v, %v", s, created, err)
	}
	again, created, err := r.Resolve("test", "", 2, true)
	if err != nil || created || again != s {
		t.Fatalf("expected existing synchronizer, got %v %v %v", again, created, err)
	}

	_, _, err = r.Resolve("test", "", 3, true)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	want := "Invalid number of choices (3) for synchronizer 'test', initialised with 2"
	if mismatch.Error() != want {
		t.Fatalf("error = %q, want %q", mismatch.Error(), want)
	}

	if _, _, err := r.Resolve("test", "", 3, false); err != nil {
		t.Fatalf("non-strict mismatch should pass through: %v", err)
	}

	r.Clear()
	if len(r.Names()) != 0 {
		t.Fatalf("expected empty registry after Clear")
	}
}
