package interpreter

import (
	"errors"
	"strings"
	"testing"

	"twaddle/interpreter-go/pkg/lookup"
)

func TestLookupForms(t *testing.T) {
	interp := newTestInterpreter(t, Options{})
	expectEvaluation(t, interp, "<noun.plural-shape>", "boxes")
	expectEvaluation(t, interp, "<noun-animal>", "cat")
	expectEvaluation(t, interp, "<noun.singular-food> and <noun.plural-food>", "egg and eggs")
	expectError(t, interp, "<noun.dual>", "lookup <noun>: unknown form 'dual' (forms: singular, plural)")
}

func TestLookupTagFiltering(t *testing.T) {
	interp := newTestInterpreter(t, Options{})
	for idx := 0; idx < 30; idx++ {
		out := mustEvaluate(t, interp, "<noun-!shape-!food>")
		if out != "cat" {
			t.Fatalf("expected negative tags to leave only cat, got %q", out)
		}
		out = mustEvaluate(t, interp, "<noun-!shape>")
		if out == "box" {
			t.Fatalf("negative tag returned excluded entry")
		}
	}
	out := mustEvaluate(t, interp, "<noun-animal-shape>")
	if out != "cat" && out != "box" && out != "egg" {
		t.Fatalf("expected fallback to any entry, got %q", out)
	}
}

func TestLookupLabels(t *testing.T) {
	interp := newTestInterpreter(t, Options{})
	for idx := 0; idx < 20; idx++ {
		out := mustEvaluate(t, interp, "<noun::=x> <noun.plural::=x>")
		parts := strings.Fields(out)
		if parts[1] != parts[0]+"s" && parts[1] != parts[0]+"es" {
			t.Fatalf("expected the same entry twice, got %q", out)
		}
		out = mustEvaluate(t, interp, "<noun::=x> <noun::!=x>")
		parts = strings.Fields(out)
		if parts[0] == parts[1] {
			t.Fatalf("expected a different entry, got %q", out)
		}
	}
}

func TestLookupRedefineLabel(t *testing.T) {
	interp := newTestInterpreter(t, Options{})
	for idx := 0; idx < 20; idx++ {
		out := mustEvaluate(t, interp, "<noun::=a> <noun::!=a::^=b> <noun::=b>")
		parts := strings.Fields(out)
		if parts[1] != parts[2] || parts[0] == parts[1] {
			t.Fatalf("expected redefined label to track the second pick, got %q", out)
		}
	}
}

func TestStrictLookupErrors(t *testing.T) {
	interp := newTestInterpreter(t, Options{Strict: true})
	err := expectError(t, interp, "<noun-bogus>", "lookup <noun>: unknown tag 'bogus'")
	var lookupErr *lookup.Error
	if !errors.As(err, &lookupErr) || lookupErr.Dictionary != "noun" {
		t.Fatalf("expected *lookup.Error for noun, got %#v", err)
	}
	expectError(t, interp, "<noun::!=never>", "lookup <noun>: unknown label 'never'")
	expectError(t, interp, "<noun-animal-shape>", "lookup <noun>: no entries match tags -animal -shape")
	expectError(t, interp, "<verb>", "lookup: no dictionary loaded named verb")
}

func TestLookupWithoutDictionaries(t *testing.T) {
	interp := New(nil, Options{Seed: 1})
	expectError(t, interp, "<noun>", "interpreter: no dictionaries available for lookup <noun>")
	expectEvaluation(t, interp, "plain", "plain")
}
