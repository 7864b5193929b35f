package parser

import "fmt"

// Context identifies the construct currently being compiled. Delimiters such
// as '|', ':' and ';' only have meaning in some contexts.
type Context int

const (
	ContextRoot Context = iota
	ContextLookup
	ContextBlock
	ContextFunction
	ContextRegex
)

func (c Context) String() string {
	switch c {
	case ContextRoot:
		return "ROOT"
	case ContextLookup:
		return "LOOKUP"
	case ContextBlock:
		return "BLOCK"
	case ContextFunction:
		return "FUNCTION"
	case ContextRegex:
		return "REGEX"
	default:
		return fmt.Sprintf("Context(%d)", int(c))
	}
}

type contextStack []Context

func (s *contextStack) push(c Context) {
	*s = append(*s, c)
}

func (s contextStack) top() Context {
	if len(s) == 0 {
		return ContextRoot
	}
	return s[len(s)-1]
}

func (s *contextStack) pop(expected Context) error {
	current := s.top()
	if len(*s) == 0 || current != expected {
		return fmt.Errorf("tried to remove %s but current context is %s", expected, current)
	}
	*s = (*s)[:len(*s)-1]
	return nil
}
