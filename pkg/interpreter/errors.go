package interpreter

import "fmt"

// Error reports a failure of the interpreter itself: an unknown function, a
// synchronizer conflict, a missing saved pattern or clipboard entry, or a
// malformed special form.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "interpreter: " + e.Message
}

func interpError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// FunctionError reports a builtin rejecting its arguments.
type FunctionError struct {
	Function string
	Message  string
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function %s: %s", e.Function, e.Message)
}

func functionError(name, format string, args ...any) *FunctionError {
	return &FunctionError{Function: name, Message: fmt.Sprintf(format, args...)}
}
