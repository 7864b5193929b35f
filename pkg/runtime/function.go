package runtime

import (
	"fmt"

	"twaddle/interpreter-go/pkg/ast"
)

// NativeCallContext carries what a builtin may need besides its evaluated
// arguments.
type NativeCallContext struct {
	// Env is the evaluation scope of the call; it holds the current regex
	// match, if any.
	Env *Environment
	// Attributes stages configuration for the next block.
	Attributes *Staging
	// Raw holds the unevaluated argument trees.
	Raw []*ast.Root
}

// Function is implemented by every callable registered with the interpreter.
type Function interface {
	Call(ctx *NativeCallContext, args []string) (Value, error)
}

type NativeFunc func(*NativeCallContext, []string) (Value, error)

// ArityError reports a call with the wrong number of arguments.
type ArityError struct {
	Name     string
	Got      int
	Min, Max int
}

func (e *ArityError) Error() string {
	switch {
	case e.Min == e.Max:
		return fmt.Sprintf("%s expects %d argument(s), got %d", e.Name, e.Min, e.Got)
	case e.Max < 0:
		return fmt.Sprintf("%s expects at least %d argument(s), got %d", e.Name, e.Min, e.Got)
	default:
		return fmt.Sprintf("%s expects %d to %d arguments, got %d", e.Name, e.Min, e.Max, e.Got)
	}
}

// NativeFunctionValue adapts a NativeFunc to Function and checks its arity.
// A negative MaxArgs means variadic.
type NativeFunctionValue struct {
	Name    string
	MinArgs int
	MaxArgs int
	Impl    NativeFunc
}

func (v NativeFunctionValue) Kind() Kind { return KindNativeFunction }

func (v NativeFunctionValue) Call(ctx *NativeCallContext, args []string) (Value, error) {
	if len(args) < v.MinArgs || (v.MaxArgs >= 0 && len(args) > v.MaxArgs) {
		return nil, &ArityError{Name: v.Name, Got: len(args), Min: v.MinArgs, Max: v.MaxArgs}
	}
	return v.Impl(ctx, args)
}
