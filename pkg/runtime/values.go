package runtime

import (
	"fmt"

	"twaddle/interpreter-go/pkg/formatter"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindString
	KindStrategy
	KindNativeFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindString:
		return "string"
	case KindStrategy:
		return "strategy"
	case KindNativeFunction:
		return "native_function"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is anything a function may produce.
type Value interface {
	Kind() Kind
}

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// StrategyValue is a formatting directive: it switches the case strategy of
// the output it is written to.
type StrategyValue struct {
	Strategy formatter.Strategy
}

func (v StrategyValue) Kind() Kind { return KindStrategy }

// Emit writes v to f.
func Emit(f *formatter.Formatter, v Value) {
	switch val := v.(type) {
	case StringValue:
		f.AppendText(val.Val)
	case StrategyValue:
		f.SetStrategy(val.Strategy)
	}
}
