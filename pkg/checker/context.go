package checker

import (
	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/synchronizer"
)

// staged is an attribute function waiting for the next block.
type staged struct {
	name string
	call *ast.Function
}

// syncUse is the first block seen for a synchronizer name.
type syncUse struct {
	choices int
	typ     synchronizer.Type
}

func (c *Checker) pushRegexContext() {
	c.regexDepth++
}

func (c *Checker) popRegexContext() {
	if c.regexDepth > 0 {
		c.regexDepth--
	}
}

func (c *Checker) inRegexContext() bool {
	return c.regexDepth > 0
}

func (c *Checker) stage(name string, call *ast.Function) {
	c.staged = append(c.staged, staged{name: name, call: call})
}

// applyStaged consumes every staged attribute for block, the way the
// interpreter does when the block starts.
func (c *Checker) applyStaged(block *ast.Block) []Diagnostic {
	pending := c.staged
	c.staged = nil

	var diags []Diagnostic
	var repeat, while *ast.Function
	for _, s := range pending {
		switch s.name {
		case "repeat":
			repeat = s.call
		case "while":
			while = s.call
		case "sync":
			diags = append(diags, c.recordSync(s.call, block)...)
		case "save":
			if name, ok := literal(firstArg(s.call)); ok {
				c.saved[name] = true
			}
		case "copy":
			if name, ok := literal(firstArg(s.call)); ok {
				c.copied[name] = true
			}
		}
	}
	if repeat != nil && while != nil {
		diags = append(diags, c.errorf(block, "a block cannot have both a repetition count and a while condition"))
	}
	return diags
}

func (c *Checker) recordSync(call *ast.Function, block *ast.Block) []Diagnostic {
	name, ok := literal(firstArg(call))
	if !ok || name == "" {
		return nil
	}
	var typ synchronizer.Type
	if len(call.Arguments) == 2 {
		if raw, ok := literal(call.Arguments[1]); ok {
			typ, _ = synchronizer.ParseType(raw)
		}
	}
	choices := len(block.Choices)
	prev, seen := c.syncs[name]
	if !seen {
		if typ == "" {
			return []Diagnostic{c.warnf(call, "synchronizer '%s' is used before it is given a type", name)}
		}
		c.syncs[name] = syncUse{choices: choices, typ: typ}
		return nil
	}
	var diags []Diagnostic
	if prev.choices != choices {
		d := c.warnf(block, "synchronizer '%s' drives %d choices here but was created with %d", name, choices, prev.choices)
		if c.opts.Strict {
			d.Severity = SeverityError
		}
		diags = append(diags, d)
	}
	if typ != "" && typ != prev.typ {
		diags = append(diags, c.warnf(call, "synchronizer '%s' is redeclared as %s (already %s)", name, typ, prev.typ))
	}
	return diags
}

func firstArg(call *ast.Function) *ast.Root {
	if call == nil || len(call.Arguments) == 0 {
		return nil
	}
	return call.Arguments[0]
}
