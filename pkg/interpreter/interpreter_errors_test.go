package interpreter

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"twaddle/interpreter-go/pkg/lexer"
	"twaddle/interpreter-go/pkg/parser"
)

func TestErrorKinds(t *testing.T) {
	interp := newTestInterpreter(t, Options{})

	_, err := interp.Evaluate(`\q`)
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected lexer error, got %T (%v)", err, err)
	}

	_, err = interp.Evaluate("{a|b")
	var parseErr *parser.Error
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %T (%v)", err, err)
	}

	err = expectError(t, interp, "[funk]", "interpreter: no function found named 'funk'")
	var interpErr *Error
	if !errors.As(err, &interpErr) {
		t.Fatalf("expected interpreter error, got %T", err)
	}

	_, err = interp.Evaluate("[div:1;0]")
	var fnErr *FunctionError
	if !errors.As(err, &fnErr) || fnErr.Function != "div" && fnErr.Function != "divide" {
		t.Fatalf("expected divide function error, got %#v", err)
	}
}

func TestErrorDiscardsStagedAttributes(t *testing.T) {
	interp := newTestInterpreter(t, Options{})
	expectError(t, interp, "[rep:3][funk]{x}", "interpreter: no function found named 'funk'")
	out, err := interp.EvaluateRoot(mustParse(t, "{x}"))
	if err != nil {
		t.Fatalf("evaluate root: %v", err)
	}
	if out != "x" {
		t.Fatalf("expected staged repetition to be discarded, got %q", out)
	}
}

func TestBuiltinArity(t *testing.T) {
	interp := newTestInterpreter(t, Options{})
	cases := []struct {
		pattern string
		want    string
	}{
		{"[rep]{x}", "function rep: repeat expects 1 argument(s), got 0"},
		{"[hide:now]{x}", "function hide: hide expects 0 argument(s), got 1"},
		{"[sync:a;b;c]{x}", "function sync: sync expects 1 to 2 arguments, got 3"},
		{"[rep:many]{x}", "function repeat: invalid repetition count 'many'"},
		{"[load]", "interpreter: load expects a name and an optional fallback, got 0 argument(s)"},
	}
	for _, tc := range cases {
		expectError(t, interp, tc.pattern, tc.want)
	}
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	interp := newTestInterpreter(t, Options{Logger: zap.New(core), MaxWhileIterations: 2})

	mustEvaluate(t, interp, "[x:s;deck]{a|b}[while:1]{c}")
	interp.Clear()

	if got := logs.FilterMessage("synchronizer created").Len(); got != 1 {
		t.Fatalf("expected one synchronizer log entry, got %d", got)
	}
	entry := logs.FilterMessage("synchronizer created").All()[0]
	if entry.ContextMap()["name"] != "s" || entry.ContextMap()["type"] != "deck" {
		t.Fatalf("unexpected synchronizer fields %v", entry.ContextMap())
	}
	if got := logs.FilterMessage("while loop stopped at iteration cap").Len(); got != 1 {
		t.Fatalf("expected one while cap log entry, got %d", got)
	}
	if got := logs.FilterMessage("session cleared").Len(); got != 1 {
		t.Fatalf("expected one clear log entry, got %d", got)
	}
}
