package checker

import (
	"strings"
	"testing"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/interpreter"
	"twaddle/interpreter-go/pkg/lookup"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	noun := lookup.NewDictionary("noun", []string{"singular", "plural"})
	if err := noun.Add([]string{"cat", "cats"}, []string{"animal"}); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	if err := noun.Add([]string{"box", "boxes"}, []string{"shape"}); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	empty := lookup.NewDictionary("void", []string{"plain"})
	return Options{
		Functions:    interpreter.New(nil, interpreter.Options{}),
		Dictionaries: lookup.NewManager(noun, empty),
	}
}

func check(t *testing.T, opts Options, source string) []Diagnostic {
	t.Helper()
	diags, err := New(opts).Check(source)
	if err != nil {
		t.Fatalf("Check(%q): %v", source, err)
	}
	return diags
}

func requireDiagnostic(t *testing.T, diags []Diagnostic, severity Severity, fragment string) {
	t.Helper()
	for _, d := range diags {
		if d.Severity == severity && strings.Contains(d.Message, fragment) {
			return
		}
	}
	t.Fatalf("missing %s diagnostic containing %q in %v", severity, fragment, diags)
}

func requireClean(t *testing.T, diags []Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestCleanPatternHasNoDiagnostics(t *testing.T) {
	opts := testOptions(t)
	requireClean(t, check(t, opts, "[rep:3][sep:, ]{a|b} <noun.plural-animal> [case:title]done"))
	requireClean(t, check(t, opts, `[//a//i:cat;[match][match]] \a <noun>`))
	requireClean(t, check(t, opts, "[x:s;deck]{a|b}[x:s]{c|d}"))
}

func TestCheckPatternFromAST(t *testing.T) {
	root := ast.NewRoot(ast.Call("rep", "2"), ast.Choices("a", "b"), ast.Look("noun", ast.WithForm("plural")))
	diags, err := New(testOptions(t)).CheckPattern(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireClean(t, diags)

	if _, err := New(Options{}).CheckPattern(nil); err == nil {
		t.Fatalf("expected error for nil pattern")
	}
}

func TestCompileErrorsAreReturned(t *testing.T) {
	if _, err := New(Options{}).Check("{unterminated"); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestUnknownFunctionsAndArity(t *testing.T) {
	opts := testOptions(t)
	requireDiagnostic(t, check(t, opts, "[shout:x]"), SeverityError, "no function found named 'shout'")
	requireDiagnostic(t, check(t, opts, "[gt:1]"), SeverityError, "function gt: greater_than expects 2 argument(s), got 1")
	requireDiagnostic(t, check(t, opts, "[if:1]"), SeverityError, "if expects a condition and one or two branches")
	requireDiagnostic(t, check(t, opts, "[load]"), SeverityError, "load expects a name and an optional fallback")

	requireClean(t, check(t, Options{}, "[shout:x]"))
}

func TestLiteralArguments(t *testing.T) {
	opts := testOptions(t)
	cases := map[string]string{
		"[rep:many]{a}":         "invalid repetition count 'many'",
		"[case:loud]x":          "unknown case strategy 'loud'",
		"[x:s;shuffled]{a|b}":   "unknown synchronizer type 'shuffled'",
		"[abbr:weird]{a b}":     "invalid abbreviation case 'weird'",
		"[rep:2][while:1]{a}":   "both a repetition count and a while condition",
		"[match]":               "outside of a regex replacement",
		"[//a//q:cat;x]":        "unknown regex flag 'q'",
		"[//(//:cat;x]":         "invalid regex",
		"[//a//:[match];x]":     "outside of a regex replacement",
		"[sync: ;locked]{a|b}":  "synchronizer name must not be blank",
		"[rep:[add:1;1]]{a}":    "",
		"[rep:{1|2}][sep:,]{a}": "",
	}
	for source, want := range cases {
		diags := check(t, opts, source)
		if want == "" {
			requireClean(t, diags)
			continue
		}
		requireDiagnostic(t, diags, SeverityError, want)
	}
}

func TestSynchronizerUse(t *testing.T) {
	opts := testOptions(t)
	source := "[x:s;locked]{a|b}[x:s]{a|b|c}"
	requireDiagnostic(t, check(t, opts, source), SeverityWarning, "drives 3 choices here but was created with 2")

	opts.Strict = true
	requireDiagnostic(t, check(t, opts, source), SeverityError, "drives 3 choices here but was created with 2")

	requireDiagnostic(t, check(t, opts, "[x:t]{a|b}"), SeverityWarning, "used before it is given a type")
	requireDiagnostic(t, check(t, opts, "[x:s;deck]{a|b}[x:s;locked]{a|b}"), SeverityWarning, "redeclared as locked (already deck)")
}

func TestLookups(t *testing.T) {
	opts := testOptions(t)
	requireDiagnostic(t, check(t, opts, "<verb>"), SeverityError, "no dictionary loaded named verb")
	requireDiagnostic(t, check(t, opts, "<noun.dual>"), SeverityError, "unknown form 'dual' (forms: singular, plural)")
	requireDiagnostic(t, check(t, opts, "<noun-robot>"), SeverityWarning, "unknown tag 'robot'")
	requireDiagnostic(t, check(t, opts, "<void>"), SeverityWarning, "dictionary has no entries")

	opts.Strict = true
	diags := check(t, opts, "<noun-animal-!robot>")
	requireDiagnostic(t, diags, SeverityError, "unknown tag 'robot'")
	if HasErrors(check(t, opts, "<noun-animal>")) {
		t.Fatalf("known tag should not be an error")
	}
}

func TestLabels(t *testing.T) {
	opts := testOptions(t)
	requireDiagnostic(t, check(t, opts, "<noun::!=a>"), SeverityWarning, "label 'a' is excluded before it is bound")
	requireClean(t, check(t, opts, "<noun::=a> <noun::!=a>"))
	requireClean(t, check(t, opts, "<noun::^=b> <noun::!=b>"))
}

func TestStoredPatterns(t *testing.T) {
	opts := testOptions(t)
	requireDiagnostic(t, check(t, opts, "[load:greeting]"), SeverityWarning, "'greeting' is not stored earlier")
	requireDiagnostic(t, check(t, opts, "[save:greeting]{hi}[paste:greeting]"), SeverityWarning, "[paste:greeting] has no fallback")
	requireClean(t, check(t, opts, "[save:greeting]{hi}[load:greeting]"))
	requireClean(t, check(t, opts, "[copy:c]{hi}[paste:c]"))
	requireClean(t, check(t, opts, "[load:greeting;hello]"))
}

func TestStagedAttributesWithoutBlock(t *testing.T) {
	diags := check(t, testOptions(t), "text [hide]")
	requireDiagnostic(t, diags, SeverityWarning, "[hide] is not followed by a block")
	if HasErrors(diags) {
		t.Fatalf("unused attributes should only warn: %v", diags)
	}
}
