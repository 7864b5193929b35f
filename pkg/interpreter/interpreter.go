package interpreter

import (
	"math/rand/v2"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/parser"
	"twaddle/interpreter-go/pkg/runtime"
	"twaddle/interpreter-go/pkg/synchronizer"
)

// DefaultMaxWhileIterations bounds while-blocks when Options leaves it unset.
const DefaultMaxWhileIterations = 1000

// MaxLoadDepth bounds how deeply [load] may nest stored patterns.
const MaxLoadDepth = 256

// LookupSource resolves dictionary lookups. *lookup.Manager implements it.
type LookupSource interface {
	Select(q *ast.Lookup, rng *rand.Rand) (ast.Node, error)
	ClearLabels()
}

// Persistence selects which session stores survive between evaluations.
type Persistence struct {
	Labels        bool
	Synchronizers bool
	Patterns      bool
	Clipboard     bool
}

// PersistAll keeps every store between evaluations.
func PersistAll() Persistence {
	return Persistence{Labels: true, Synchronizers: true, Patterns: true, Clipboard: true}
}

// Options configures an Interpreter.
type Options struct {
	Strict             bool
	Persist            Persistence
	MaxWhileIterations int
	// Seed makes evaluation deterministic. Zero seeds from the runtime.
	Seed   uint64
	Logger *zap.Logger
}

// session is the mutable state owned by one interpreter.
type session struct {
	staging   *runtime.Staging
	syncs     *synchronizer.Registry
	patterns  map[string]*ast.Block
	clipboard map[string]*formatter.Formatter
}

// Interpreter evaluates patterns.
type Interpreter struct {
	opts      Options
	lookups   LookupSource
	rng       *rand.Rand
	logger    *zap.Logger
	parser    *parser.PatternParser
	global    *runtime.Environment
	functions map[string]runtime.Function
	regexes   map[string]*regexp2.Regexp
	session   *session
	loadDepth int
}

// New returns an interpreter reading dictionaries from lookups, which may be
// nil if patterns never use lookups.
func New(lookups LookupSource, opts Options) *Interpreter {
	if opts.MaxWhileIterations <= 0 {
		opts.MaxWhileIterations = DefaultMaxWhileIterations
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	i := &Interpreter{
		opts:      opts,
		lookups:   lookups,
		rng:       rng,
		logger:    logger,
		parser:    parser.NewPatternParser(opts.Strict),
		global:    runtime.NewEnvironment(nil),
		functions: make(map[string]runtime.Function),
		regexes:   make(map[string]*regexp2.Regexp),
		session: &session{
			staging:   runtime.NewStaging(),
			syncs:     synchronizer.NewRegistry(rng),
			patterns:  make(map[string]*ast.Block),
			clipboard: make(map[string]*formatter.Formatter),
		},
	}
	registerBuiltins(i)
	return i
}

// Register adds or replaces a function. The special forms clear, if, load
// and paste cannot be overridden.
func (i *Interpreter) Register(name string, fn runtime.Function) {
	i.functions[name] = fn
}

// Function returns the function registered under name. The special forms
// are not registered and report false.
func (i *Interpreter) Function(name string) (runtime.Function, bool) {
	fn, ok := i.functions[name]
	return fn, ok
}

// IsSpecialForm reports whether name is evaluated by the interpreter itself
// rather than through a registered function.
func IsSpecialForm(name string) bool {
	switch name {
	case "if", "clear", "load", "paste":
		return true
	}
	return false
}

// Evaluate compiles pattern and renders it. Stores not marked persistent
// are cleared first. On error no output is returned.
func (i *Interpreter) Evaluate(pattern string) (string, error) {
	i.beginEvaluation()
	root, err := i.parser.ParsePattern(pattern)
	if err != nil {
		return "", err
	}
	return i.run(root)
}

// EvaluateRoot renders an already compiled pattern.
func (i *Interpreter) EvaluateRoot(root *ast.Root) (string, error) {
	i.beginEvaluation()
	return i.run(root)
}

func (i *Interpreter) run(root *ast.Root) (string, error) {
	i.loadDepth = 0
	out := formatter.New()
	if err := i.evaluateRoot(root, i.global, out); err != nil {
		i.session.staging.Reset()
		return "", err
	}
	return out.Resolve(), nil
}

func (i *Interpreter) beginEvaluation() {
	s := i.session
	s.staging.Reset()
	if !i.opts.Persist.Labels && i.lookups != nil {
		i.lookups.ClearLabels()
	}
	if !i.opts.Persist.Synchronizers {
		s.syncs.Clear()
	}
	if !i.opts.Persist.Patterns {
		clear(s.patterns)
	}
	if !i.opts.Persist.Clipboard {
		clear(s.clipboard)
	}
}

// Clear resets every session store regardless of persistence.
func (i *Interpreter) Clear() {
	s := i.session
	s.staging.Reset()
	if i.lookups != nil {
		i.lookups.ClearLabels()
	}
	s.syncs.Clear()
	clear(s.patterns)
	clear(s.clipboard)
	i.logger.Debug("session cleared")
}

// Synchronizers lists the synchronizers alive in the session.
func (i *Interpreter) Synchronizers() []string {
	return i.session.syncs.Names()
}
