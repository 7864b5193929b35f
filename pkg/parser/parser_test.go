package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/lexer"
	"twaddle/interpreter-go/pkg/parser"
)

var astOpts = cmp.AllowUnexported(
	ast.Root{}, ast.Text{}, ast.Lookup{}, ast.Block{}, ast.Function{},
	ast.Regex{}, ast.IndefiniteArticle{}, ast.Digit{},
)

func mustParse(t *testing.T, source string) *ast.Root {
	t.Helper()
	root, err := parser.Parse(source, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return root
}

func assertTree(t *testing.T, source string, want *ast.Root) {
	t.Helper()
	got := mustParse(t, source)
	if diff := cmp.Diff(want, got, astOpts); diff != "" {
		t.Fatalf("AST mismatch for %q (-want +got):\n%s", source, diff)
	}
}

func TestParsePlainText(t *testing.T) {
	assertTree(t, "hello there: friend; a|b", ast.NewRoot(ast.NewText("hello there: friend; a|b")))
}

func TestParseEscapedDelimitersMergeIntoText(t *testing.T) {
	assertTree(t, `\<angles\>\{\}`, ast.NewRoot(ast.NewText("<angles>{}")))
}

func TestParseArticlesAndDigits(t *testing.T) {
	assertTree(t, `\a cat \A\d`, ast.NewRoot(
		ast.NewIndefiniteArticle(false),
		ast.NewText(" cat "),
		ast.NewIndefiniteArticle(true),
		ast.NewDigit(),
	))
}

func TestParseLookupSegments(t *testing.T) {
	want := ast.NewLookup("noun")
	want.Form = "plural"
	want.PositiveTags = []string{"shape"}
	want.NegativeTags = []string{"animal"}
	want.PositiveLabel = "a"
	want.NegativeLabels = []string{"b"}
	want.RedefineLabels = []string{"c"}
	assertTree(t, "<noun-shape.plural-!animal::=a::!=b::^=c>", ast.NewRoot(want))
}

func TestParseLookupStrictFlag(t *testing.T) {
	root, err := parser.Parse("<noun>", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lookup, ok := root.Children[0].(*ast.Lookup)
	if !ok || !lookup.Strict {
		t.Fatalf("expected strict lookup, got %#v", root.Children[0])
	}
}

func TestParseBlockChoices(t *testing.T) {
	assertTree(t, "{a|<noun>|}", ast.NewRoot(ast.NewBlock(
		ast.Txt("a"),
		ast.NewRoot(ast.NewLookup("noun")),
		ast.NewRoot(),
	)))
}

func TestParseEmptyBlockHasOneChoice(t *testing.T) {
	root := mustParse(t, "{}")
	block := root.Children[0].(*ast.Block)
	if len(block.Choices) != 1 || len(block.Choices[0].Children) != 0 {
		t.Fatalf("expected single empty choice, got %#v", block.Choices)
	}
}

func TestParseFunctionArguments(t *testing.T) {
	assertTree(t, "[rep:3][sep:, ]{x}[hide]", ast.NewRoot(
		ast.Call("rep", "3"),
		ast.Call("sep", ", "),
		ast.Choices("x"),
		ast.Call("hide"),
	))
}

func TestParseNestedFunction(t *testing.T) {
	assertTree(t, "[if:[gt:5;3];{a|b};no]", ast.NewRoot(ast.Fn("if",
		ast.NewRoot(ast.Call("gt", "5", "3")),
		ast.NewRoot(ast.Choices("a", "b")),
		ast.Txt("no"),
	)))
}

func TestParseColonSeparatesArguments(t *testing.T) {
	assertTree(t, "[sync:name:deck]", ast.NewRoot(ast.Call("sync", "name", "deck")))
}

func TestParsePipeInsideFunctionInsideBlock(t *testing.T) {
	assertTree(t, "{[sep:|]a|b}", ast.NewRoot(ast.NewBlock(
		ast.NewRoot(ast.Call("sep", "|"), ast.NewText("a")),
		ast.Txt("b"),
	)))
}

func TestParseRegex(t *testing.T) {
	assertTree(t, `[//\w+//i:<noun>;[match]!]`, ast.NewRoot(ast.NewRegex(
		`\w+`, "i",
		ast.NewRoot(ast.NewLookup("noun")),
		ast.NewRoot(ast.Call("match"), ast.NewText("!")),
	)))
}

func TestParseNestedRegex(t *testing.T) {
	root := mustParse(t, "[//a//:[//b//:abc;x];y]")
	outer := root.Children[0].(*ast.Regex)
	inner, ok := outer.Scope.Children[0].(*ast.Regex)
	if !ok || inner.Pattern != "b" {
		t.Fatalf("expected nested regex in scope, got %#v", outer.Scope.Children)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unclosed block":       "{a|b",
		"unclosed function":    "[rep:3",
		"unclosed lookup":      "<noun",
		"stray close curly":    "a}",
		"stray close square":   "a]",
		"stray close angle":    "a>",
		"wrong closer":         "{a]",
		"closer in function":   "[rep:3}",
		"empty lookup":         "<>",
		"bad label op":         "<noun::x>",
		"unterminated regex":   "[//abc",
		"regex without scope":  "[//a//]",
		"regex without repl":   "[//a//:abc]",
		"empty function":       "[]",
		"garbage after name":   "[rep<noun>]",
		"blank tag":            "<noun- >",
		"second form":          "<noun.a.b>",
		"missing label equals": "<noun::!x>",
	}
	for name, source := range cases {
		t.Run(name, func(t *testing.T) {
			root, err := parser.Parse(source, false)
			if err == nil {
				t.Fatalf("expected error for %q", source)
			}
			if root != nil {
				t.Fatalf("expected no tree alongside error")
			}
			var parseErr *parser.Error
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected parse error, got %T: %v", err, err)
			}
		})
	}
}

func TestParseLexErrorPassesThrough(t *testing.T) {
	_, err := parser.Parse(`\q`, false)
	var lexErr *lexer.Error
	if !errors.As(err, &lexErr) {
		t.Fatalf("expected lexer error, got %v", err)
	}
}

func TestParseErrorMentionsContext(t *testing.T) {
	_, err := parser.Parse("[rep:{a]", false)
	if err == nil || !strings.Contains(err.Error(), "BLOCK") {
		t.Fatalf("expected block context in error, got %v", err)
	}
}
