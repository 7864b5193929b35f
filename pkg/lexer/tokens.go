package lexer

import "fmt"

// Kind identifies a token category.
type Kind string

const (
	KindText         Kind = "Text"
	KindLeftAngle    Kind = "<"
	KindRightAngle   Kind = ">"
	KindLeftCurly    Kind = "{"
	KindRightCurly   Kind = "}"
	KindLeftSquare   Kind = "["
	KindRightSquare  Kind = "]"
	KindPipe         Kind = "|"
	KindHyphen       Kind = "-"
	KindSemicolon    Kind = ";"
	KindColon        Kind = ":"
	KindDoubleColon  Kind = "::"
	KindExclamation  Kind = "!"
	KindDot          Kind = "."
	KindEquals       Kind = "="
	KindCaret        Kind = "^"
	KindRegex        Kind = "//"
	KindLowerArticle Kind = `\a`
	KindUpperArticle Kind = `\A`
	KindDigit        Kind = `\d`
)

// Token is a single lexical unit. Text holds the literal rendering of the
// token: the unescaped value for text, the source characters otherwise.
type Token struct {
	Kind Kind
	Text string
	Pos  int
}

func (t Token) String() string {
	if t.Kind == KindText {
		return fmt.Sprintf("Text(%q)@%d", t.Text, t.Pos)
	}
	return fmt.Sprintf("%s@%d", t.Kind, t.Pos)
}

// operators maps single-character operators to their kind. ':' and '/' are
// handled separately because they take part in two-character operators.
var operators = map[byte]Kind{
	'<': KindLeftAngle,
	'>': KindRightAngle,
	'{': KindLeftCurly,
	'}': KindRightCurly,
	'[': KindLeftSquare,
	']': KindRightSquare,
	'|': KindPipe,
	'-': KindHyphen,
	';': KindSemicolon,
	'!': KindExclamation,
	'.': KindDot,
	'=': KindEquals,
	'^': KindCaret,
}

// escapes maps the character following a backslash to its literal value.
// \a, \A and \d are not here because they produce their own token kinds.
var escapes = map[byte]string{
	'n':  "\n",
	't':  "\t",
	's':  " ",
	'\\': `\`,
	'<':  "<",
	'>':  ">",
	'{':  "{",
	'}':  "}",
	'[':  "[",
	']':  "]",
	'|':  "|",
	'-':  "-",
	';':  ";",
	':':  ":",
	'!':  "!",
	'.':  ".",
	'=':  "=",
	'^':  "^",
	'/':  "/",
	'"':  `"`,
}
