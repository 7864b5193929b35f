package checker

import (
	"fmt"
	"strings"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/lookup"
	"twaddle/interpreter-go/pkg/parser"
	"twaddle/interpreter-go/pkg/runtime"
)

// FunctionSource resolves function names. *interpreter.Interpreter
// satisfies it.
type FunctionSource interface {
	Function(name string) (runtime.Function, bool)
}

// DictionarySource resolves dictionary names. *lookup.Manager satisfies it.
type DictionarySource interface {
	Dictionary(name string) (*lookup.Dictionary, error)
}

// Options configures a Checker. A nil source skips the checks that need it.
type Options struct {
	Functions    FunctionSource
	Dictionaries DictionarySource
	// Strict reports unknown lookup tags as errors instead of warnings.
	Strict bool
}

// Checker traverses compiled patterns and records diagnostics.
type Checker struct {
	opts Options

	regexDepth int
	staged     []staged
	syncs      map[string]syncUse
	saved      map[string]bool
	copied     map[string]bool
	labels     map[string]map[string]bool
}

// Severity grades a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic represents a problem found in a pattern.
type Diagnostic struct {
	Severity Severity
	Message  string
	Node     ast.Node
}

func (d Diagnostic) String() string {
	return d.Severity.String() + ": " + d.Message
}

// New returns a checker instance.
func New(opts Options) *Checker {
	return &Checker{opts: opts}
}

// Check compiles source and checks the result. Compile failures are
// returned as the error.
func (c *Checker) Check(source string) ([]Diagnostic, error) {
	root, err := parser.Parse(source, c.opts.Strict)
	if err != nil {
		return nil, err
	}
	return c.CheckPattern(root)
}

// CheckPattern checks a compiled pattern and returns its diagnostics in
// evaluation order.
func (c *Checker) CheckPattern(root *ast.Root) ([]Diagnostic, error) {
	if root == nil {
		return nil, fmt.Errorf("checker: pattern is nil")
	}
	c.regexDepth = 0
	c.staged = nil
	c.syncs = make(map[string]syncUse)
	c.saved = make(map[string]bool)
	c.copied = make(map[string]bool)
	c.labels = make(map[string]map[string]bool)

	diagnostics := c.checkRoot(root)
	for _, s := range c.staged {
		diagnostics = append(diagnostics, c.warnf(s.call, "[%s] is not followed by a block and has no effect", s.call.Name))
	}
	c.staged = nil
	return diagnostics, nil
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (c *Checker) checkRoot(root *ast.Root) []Diagnostic {
	if root == nil {
		return nil
	}
	var diags []Diagnostic
	for _, child := range root.Children {
		diags = append(diags, c.checkNode(child)...)
	}
	return diags
}

func (c *Checker) checkNode(node ast.Node) []Diagnostic {
	switch n := node.(type) {
	case *ast.Text, *ast.IndefiniteArticle, *ast.Digit:
		return nil
	case *ast.Lookup:
		return c.checkLookup(n)
	case *ast.Block:
		return c.checkBlock(n)
	case *ast.Function:
		return c.checkFunction(n)
	case *ast.Regex:
		return c.checkRegex(n)
	default:
		return []Diagnostic{c.errorf(node, "unsupported node %T", node)}
	}
}

func (c *Checker) checkBlock(block *ast.Block) []Diagnostic {
	diags := c.applyStaged(block)
	for _, choice := range block.Choices {
		diags = append(diags, c.checkRoot(choice)...)
	}
	return diags
}

func (c *Checker) errorf(node ast.Node, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...), Node: node}
}

func (c *Checker) warnf(node ast.Node, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...), Node: node}
}

// literal returns the text of an argument made only of plain text.
func literal(root *ast.Root) (string, bool) {
	if root == nil {
		return "", true
	}
	var sb strings.Builder
	for _, child := range root.Children {
		text, ok := child.(*ast.Text)
		if !ok {
			return "", false
		}
		sb.WriteString(text.Value)
	}
	return strings.TrimSpace(sb.String()), true
}
