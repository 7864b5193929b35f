package parser

import (
	"fmt"
	"strings"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/lexer"
)

// Error reports a malformed pattern. No partial tree accompanies it.
type Error struct {
	Pos     int
	Context Context
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at offset %d (%s): %s", e.Pos, e.Context, e.Message)
}

// PatternParser compiles pattern source into an AST.
type PatternParser struct {
	strict bool
}

// NewPatternParser constructs a parser. In strict mode every lookup it
// produces is flagged strict.
func NewPatternParser(strict bool) *PatternParser {
	return &PatternParser{strict: strict}
}

// Parse is shorthand for NewPatternParser(strict).ParsePattern(source).
func Parse(source string, strict bool) (*ast.Root, error) {
	return NewPatternParser(strict).ParsePattern(source)
}

// ParsePattern lexes and compiles source. Lexer errors are returned as-is.
func (p *PatternParser) ParsePattern(source string) (*ast.Root, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	c := &compiler{tokens: tokens, strict: p.strict, end: len(source)}
	return c.compile()
}

type compiler struct {
	tokens []lexer.Token
	pos    int
	stack  contextStack
	strict bool
	end    int
}

func (c *compiler) compile() (*ast.Root, error) {
	c.stack.push(ContextRoot)
	root, err := c.parseRun()
	if err != nil {
		return nil, err
	}
	if tok, ok := c.peek(); ok {
		return nil, c.errorAt(tok.Pos, "unexpected %q", tok.Text)
	}
	if err := c.stack.pop(ContextRoot); err != nil {
		return nil, c.errorAt(c.end, "%s", err.Error())
	}
	return root, nil
}

func (c *compiler) peek() (lexer.Token, bool) {
	if c.pos >= len(c.tokens) {
		return lexer.Token{}, false
	}
	return c.tokens[c.pos], true
}

func (c *compiler) peekKind(offset int) lexer.Kind {
	if c.pos+offset >= len(c.tokens) {
		return ""
	}
	return c.tokens[c.pos+offset].Kind
}

func (c *compiler) next() lexer.Token {
	tok := c.tokens[c.pos]
	c.pos++
	return tok
}

func (c *compiler) errorAt(pos int, format string, args ...any) *Error {
	return &Error{Pos: pos, Context: c.stack.top(), Message: fmt.Sprintf(format, args...)}
}

func (c *compiler) errorHere(format string, args ...any) *Error {
	pos := c.end
	if tok, ok := c.peek(); ok {
		pos = tok.Pos
	}
	return c.errorAt(pos, format, args...)
}

// parseRun compiles content until a token that terminates the current
// context, leaving that token unconsumed, or until the input ends.
func (c *compiler) parseRun() (*ast.Root, error) {
	root := ast.NewRoot()
	for {
		tok, ok := c.peek()
		if !ok {
			return root, nil
		}
		ctx := c.stack.top()
		switch tok.Kind {
		case lexer.KindLeftAngle:
			node, err := c.parseLookup()
			if err != nil {
				return nil, err
			}
			root.Append(node)
		case lexer.KindLeftCurly:
			node, err := c.parseBlock()
			if err != nil {
				return nil, err
			}
			root.Append(node)
		case lexer.KindLeftSquare:
			var (
				node ast.Node
				err  error
			)
			if c.peekKind(1) == lexer.KindRegex {
				node, err = c.parseRegex()
			} else {
				node, err = c.parseFunction()
			}
			if err != nil {
				return nil, err
			}
			root.Append(node)
		case lexer.KindLowerArticle:
			c.next()
			root.Append(ast.NewIndefiniteArticle(false))
		case lexer.KindUpperArticle:
			c.next()
			root.Append(ast.NewIndefiniteArticle(true))
		case lexer.KindDigit:
			c.next()
			root.Append(ast.NewDigit())
		case lexer.KindRightCurly:
			if ctx == ContextBlock {
				return root, nil
			}
			return nil, c.errorAt(tok.Pos, "unexpected '}' outside of a block")
		case lexer.KindRightSquare:
			if ctx == ContextFunction || ctx == ContextRegex {
				return root, nil
			}
			return nil, c.errorAt(tok.Pos, "unexpected ']' outside of a function or regex")
		case lexer.KindRightAngle:
			return nil, c.errorAt(tok.Pos, "unexpected '>' outside of a lookup")
		case lexer.KindPipe:
			if ctx == ContextBlock {
				return root, nil
			}
			c.next()
			root.Append(ast.NewText(tok.Text))
		case lexer.KindColon, lexer.KindSemicolon:
			if ctx == ContextFunction || ctx == ContextRegex {
				return root, nil
			}
			c.next()
			root.Append(ast.NewText(tok.Text))
		default:
			c.next()
			root.Append(ast.NewText(tok.Text))
		}
	}
}

// expectText consumes a text token and returns its trimmed value.
func (c *compiler) expectText(what string) (string, error) {
	tok, ok := c.peek()
	if !ok {
		return "", c.errorHere("expected %s but reached end of pattern", what)
	}
	if tok.Kind != lexer.KindText {
		return "", c.errorAt(tok.Pos, "expected %s, found %q", what, tok.Text)
	}
	c.next()
	value := strings.TrimSpace(tok.Text)
	if value == "" {
		return "", c.errorAt(tok.Pos, "%s must not be blank", what)
	}
	return value, nil
}

func (c *compiler) expect(kind lexer.Kind, what string) error {
	tok, ok := c.peek()
	if !ok {
		return c.errorHere("missing %s", what)
	}
	if tok.Kind != kind {
		return c.errorAt(tok.Pos, "expected %s, found %q", what, tok.Text)
	}
	c.next()
	return nil
}

func (c *compiler) popContext(ctx Context) error {
	if err := c.stack.pop(ctx); err != nil {
		return c.errorHere("%s", err.Error())
	}
	return nil
}
