package interpreter

import (
	"testing"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/lookup"
	"twaddle/interpreter-go/pkg/parser"
)

func newTestInterpreter(t *testing.T, opts Options) *Interpreter {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	return New(testDictionaries(t), opts)
}

func testDictionaries(t *testing.T) *lookup.Manager {
	t.Helper()
	noun := lookup.NewDictionary("noun", []string{"singular", "plural"})
	rows := []struct {
		values []string
		tags   []string
	}{
		{[]string{"cat", "cats"}, []string{"animal"}},
		{[]string{"box", "boxes"}, []string{"shape"}},
		{[]string{"egg", "eggs"}, []string{"food"}},
	}
	for _, row := range rows {
		if err := noun.Add(row.values, row.tags); err != nil {
			t.Fatalf("adding %v: %v", row.values, err)
		}
	}
	return lookup.NewManager(noun)
}

func mustEvaluate(t *testing.T, interp *Interpreter, pattern string) string {
	t.Helper()
	out, err := interp.Evaluate(pattern)
	if err != nil {
		t.Fatalf("evaluate %q: %v", pattern, err)
	}
	return out
}

func expectEvaluation(t *testing.T, interp *Interpreter, pattern, want string) {
	t.Helper()
	if got := mustEvaluate(t, interp, pattern); got != want {
		t.Fatalf("evaluate %q: expected %q, got %q", pattern, want, got)
	}
}

func expectError(t *testing.T, interp *Interpreter, pattern, want string) error {
	t.Helper()
	out, err := interp.Evaluate(pattern)
	if err == nil {
		t.Fatalf("evaluate %q: expected error %q, got output %q", pattern, want, out)
	}
	if err.Error() != want {
		t.Fatalf("evaluate %q: expected error %q, got %q", pattern, want, err.Error())
	}
	if out != "" {
		t.Fatalf("evaluate %q: expected no output on error, got %q", pattern, out)
	}
	return err
}

func mustParse(t *testing.T, pattern string) *ast.Root {
	t.Helper()
	root, err := parser.Parse(pattern, false)
	if err != nil {
		t.Fatalf("parse %q: %v", pattern, err)
	}
	return root
}
