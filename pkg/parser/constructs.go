package parser

import (
	"strings"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/lexer"
)

// parseLookup compiles <name[.form][-tag|-!tag]*[::=l|::!=l|::^=l]*>.
// Segments after the name may appear in any order.
func (c *compiler) parseLookup() (*ast.Lookup, error) {
	open := c.next()
	c.stack.push(ContextLookup)

	name, err := c.expectText("dictionary name")
	if err != nil {
		return nil, err
	}
	lookup := ast.NewLookup(name)
	lookup.Strict = c.strict

	for {
		tok, ok := c.peek()
		if !ok {
			return nil, c.errorAt(open.Pos, "missing '>' for lookup of %q", name)
		}
		switch tok.Kind {
		case lexer.KindRightAngle:
			c.next()
			if err := c.popContext(ContextLookup); err != nil {
				return nil, err
			}
			return lookup, nil
		case lexer.KindDot:
			c.next()
			if lookup.Form != "" {
				return nil, c.errorAt(tok.Pos, "lookup of %q requests more than one form", name)
			}
			form, err := c.expectText("form name")
			if err != nil {
				return nil, err
			}
			lookup.Form = form
		case lexer.KindHyphen:
			c.next()
			negative := false
			if c.peekKind(0) == lexer.KindExclamation {
				c.next()
				negative = true
			}
			tag, err := c.expectText("tag")
			if err != nil {
				return nil, err
			}
			if negative {
				lookup.NegativeTags = append(lookup.NegativeTags, tag)
			} else {
				lookup.PositiveTags = append(lookup.PositiveTags, tag)
			}
		case lexer.KindDoubleColon:
			c.next()
			if err := c.parseLabel(lookup); err != nil {
				return nil, err
			}
		default:
			return nil, c.errorAt(tok.Pos, "unexpected %q in lookup of %q", tok.Text, name)
		}
	}
}

func (c *compiler) parseLabel(lookup *ast.Lookup) error {
	tok, ok := c.peek()
	if !ok {
		return c.errorHere("missing label operator after '::'")
	}
	switch tok.Kind {
	case lexer.KindEquals:
		c.next()
		label, err := c.expectText("label")
		if err != nil {
			return err
		}
		lookup.PositiveLabel = label
	case lexer.KindExclamation:
		c.next()
		if err := c.expect(lexer.KindEquals, "'=' after '::!'"); err != nil {
			return err
		}
		label, err := c.expectText("label")
		if err != nil {
			return err
		}
		lookup.NegativeLabels = append(lookup.NegativeLabels, label)
	case lexer.KindCaret:
		c.next()
		if err := c.expect(lexer.KindEquals, "'=' after '::^'"); err != nil {
			return err
		}
		label, err := c.expectText("label")
		if err != nil {
			return err
		}
		lookup.RedefineLabels = append(lookup.RedefineLabels, label)
	default:
		return c.errorAt(tok.Pos, "unknown label operator %q", tok.Text)
	}
	return nil
}

// parseBlock compiles {choice|choice|...}.
func (c *compiler) parseBlock() (*ast.Block, error) {
	open := c.next()
	c.stack.push(ContextBlock)

	var choices []*ast.Root
	for {
		choice, err := c.parseRun()
		if err != nil {
			return nil, err
		}
		choices = append(choices, choice)

		tok, ok := c.peek()
		if !ok {
			return nil, c.errorAt(open.Pos, "missing '}' for block")
		}
		c.next()
		if tok.Kind == lexer.KindRightCurly {
			break
		}
	}
	if err := c.popContext(ContextBlock); err != nil {
		return nil, err
	}
	return ast.NewBlock(choices...), nil
}

// parseFunction compiles [name] or [name:arg;arg...]. Both ':' and ';'
// separate arguments.
func (c *compiler) parseFunction() (*ast.Function, error) {
	open := c.next()
	c.stack.push(ContextFunction)

	name, err := c.expectText("function name")
	if err != nil {
		return nil, err
	}
	fn := ast.NewFunction(name)

	tok, ok := c.peek()
	if !ok {
		return nil, c.errorAt(open.Pos, "missing ']' for function %q", name)
	}
	switch tok.Kind {
	case lexer.KindRightSquare:
		c.next()
	case lexer.KindColon:
		c.next()
		for {
			arg, err := c.parseRun()
			if err != nil {
				return nil, err
			}
			fn.Arguments = append(fn.Arguments, arg)

			tok, ok := c.peek()
			if !ok {
				return nil, c.errorAt(open.Pos, "missing ']' for function %q", name)
			}
			c.next()
			if tok.Kind == lexer.KindRightSquare {
				break
			}
		}
	default:
		return nil, c.errorAt(tok.Pos, "unexpected %q after function name %q", tok.Text, name)
	}

	if err := c.popContext(ContextFunction); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseRegex compiles [//pattern//flags:scope;replacement].
func (c *compiler) parseRegex() (*ast.Regex, error) {
	open := c.next()
	c.next() // opening //
	c.stack.push(ContextRegex)

	var pattern strings.Builder
	for {
		tok, ok := c.peek()
		if !ok {
			return nil, c.errorAt(open.Pos, "unterminated regex pattern")
		}
		c.next()
		if tok.Kind == lexer.KindRegex {
			break
		}
		pattern.WriteString(tok.Text)
	}
	if pattern.Len() == 0 {
		return nil, c.errorAt(open.Pos, "empty regex pattern")
	}

	flags := ""
	if tok, ok := c.peek(); ok && tok.Kind == lexer.KindText {
		c.next()
		flags = strings.TrimSpace(tok.Text)
	}

	if err := c.expect(lexer.KindColon, "':' before regex scope"); err != nil {
		return nil, err
	}
	scope, err := c.parseRun()
	if err != nil {
		return nil, err
	}
	tok, ok := c.peek()
	if !ok {
		return nil, c.errorAt(open.Pos, "missing ']' for regex")
	}
	if tok.Kind != lexer.KindSemicolon && tok.Kind != lexer.KindColon {
		return nil, c.errorAt(tok.Pos, "regex requires a replacement after its scope")
	}
	c.next()
	replacement, err := c.parseRun()
	if err != nil {
		return nil, err
	}
	if err := c.expect(lexer.KindRightSquare, "']' for regex"); err != nil {
		return nil, err
	}
	if err := c.popContext(ContextRegex); err != nil {
		return nil, err
	}
	return ast.NewRegex(pattern.String(), flags, scope, replacement), nil
}
