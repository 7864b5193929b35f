package lexer

import (
	"fmt"
	"strings"
)

// Error reports an invalid escape sequence in a pattern.
type Error struct {
	Pos     int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Pos, e.Message)
}

// Lexer splits a pattern into tokens.
type Lexer struct {
	src    string
	pos    int
	tokens []Token
}

// Tokenize lexes the whole pattern. The parser needs the full sequence, so
// there is no streaming interface.
func Tokenize(src string) ([]Token, error) {
	l := &Lexer{src: src}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *Lexer) emit(kind Kind, text string, pos int) {
	l.tokens = append(l.tokens, Token{Kind: kind, Text: text, Pos: pos})
}

func (l *Lexer) run() error {
	var text strings.Builder
	textStart := 0
	flush := func() {
		if text.Len() > 0 {
			l.emit(KindText, text.String(), textStart)
			text.Reset()
		}
	}

	for l.pos < len(l.src) {
		start := l.pos
		c := l.src[l.pos]
		switch {
		case c == '\\':
			if l.pos+1 >= len(l.src) {
				return &Error{Pos: start, Message: "dangling escape at end of pattern"}
			}
			next := l.src[l.pos+1]
			l.pos += 2
			switch next {
			case 'a':
				flush()
				l.emit(KindLowerArticle, `\a`, start)
			case 'A':
				flush()
				l.emit(KindUpperArticle, `\A`, start)
			case 'd':
				flush()
				l.emit(KindDigit, `\d`, start)
			default:
				value, ok := escapes[next]
				if !ok {
					return &Error{Pos: start, Message: fmt.Sprintf("unknown escape sequence '\\%c'", next)}
				}
				flush()
				l.emit(KindText, value, start)
			}
		case c == ':':
			flush()
			if l.peek(1) == ':' {
				l.emit(KindDoubleColon, "::", start)
				l.pos += 2
			} else {
				l.emit(KindColon, ":", start)
				l.pos++
			}
		case c == '/' && l.peek(1) == '/':
			flush()
			l.emit(KindRegex, "//", start)
			l.pos += 2
		case c == '[' && l.peek(1) == '/' && l.peek(2) == '/':
			flush()
			l.emit(KindLeftSquare, "[", start)
			l.emit(KindRegex, "//", start+1)
			l.pos += 3
			l.rawPattern()
		default:
			if kind, ok := operators[c]; ok {
				flush()
				l.emit(kind, string(c), start)
				l.pos++
				continue
			}
			if text.Len() == 0 {
				textStart = start
			}
			text.WriteByte(c)
			l.pos++
		}
	}
	flush()
	return nil
}

// rawPattern consumes a regex pattern verbatim up to and including the
// closing "//". Backslash sequences are left for the regex engine.
func (l *Lexer) rawPattern() {
	start := l.pos
	end := strings.Index(l.src[l.pos:], "//")
	if end < 0 {
		if start < len(l.src) {
			l.emit(KindText, l.src[start:], start)
		}
		l.pos = len(l.src)
		return
	}
	if end > 0 {
		l.emit(KindText, l.src[start:start+end], start)
	}
	l.emit(KindRegex, "//", start+end)
	l.pos = start + end + 2
}

func (l *Lexer) peek(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}
