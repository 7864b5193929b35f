package interpreter

import (
	"errors"
	"strings"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateFunction(fn *ast.Function, env *runtime.Environment, out *formatter.Formatter) error {
	switch fn.Name {
	case "if":
		return i.evaluateIf(fn, env, out)
	case "clear":
		i.Clear()
		return nil
	case "load":
		return i.evaluateLoad(fn, env, out)
	case "paste":
		return i.evaluatePaste(fn, env, out)
	}

	impl, ok := i.functions[fn.Name]
	if !ok {
		return interpError("no function found named '%s'", fn.Name)
	}
	args, err := i.renderArgs(fn.Arguments, env)
	if err != nil {
		return err
	}
	ctx := &runtime.NativeCallContext{
		Env:        env,
		Attributes: i.session.staging,
		Raw:        fn.Arguments,
	}
	value, err := impl.Call(ctx, args)
	if err != nil {
		return asFunctionError(fn.Name, err)
	}
	if value != nil {
		runtime.Emit(out, value)
	}
	return nil
}

func asFunctionError(name string, err error) error {
	var (
		interpErr *Error
		fnErr     *FunctionError
	)
	if errors.As(err, &interpErr) || errors.As(err, &fnErr) {
		return err
	}
	return &FunctionError{Function: name, Message: err.Error()}
}

func (i *Interpreter) renderArgs(args []*ast.Root, env *runtime.Environment) ([]string, error) {
	out := make([]string, len(args))
	for idx, arg := range args {
		rendered, err := i.render(arg, env)
		if err != nil {
			return nil, err
		}
		out[idx] = rendered
	}
	return out, nil
}

// evaluateIf renders exactly one branch. The other branch is never
// evaluated, so it has no side effects.
func (i *Interpreter) evaluateIf(fn *ast.Function, env *runtime.Environment, out *formatter.Formatter) error {
	if len(fn.Arguments) < 2 || len(fn.Arguments) > 3 {
		return interpError("if expects a condition and one or two branches, got %d argument(s)", len(fn.Arguments))
	}
	condition, err := i.render(fn.Arguments[0], env)
	if err != nil {
		return err
	}
	if truthy(condition) {
		return i.evaluateRoot(fn.Arguments[1], env, out)
	}
	if len(fn.Arguments) == 3 {
		return i.evaluateRoot(fn.Arguments[2], env, out)
	}
	return nil
}

// storedName renders the name and optional fallback of load and paste.
func (i *Interpreter) storedName(fn *ast.Function, env *runtime.Environment) (string, *ast.Root, error) {
	if len(fn.Arguments) < 1 || len(fn.Arguments) > 2 {
		return "", nil, interpError("%s expects a name and an optional fallback, got %d argument(s)", fn.Name, len(fn.Arguments))
	}
	name, err := i.render(fn.Arguments[0], env)
	if err != nil {
		return "", nil, err
	}
	var fallback *ast.Root
	if len(fn.Arguments) == 2 {
		fallback = fn.Arguments[1]
	}
	return strings.TrimSpace(name), fallback, nil
}

func (i *Interpreter) evaluateLoad(fn *ast.Function, env *runtime.Environment, out *formatter.Formatter) error {
	name, fallback, err := i.storedName(fn, env)
	if err != nil {
		return err
	}
	block, ok := i.session.patterns[name]
	if !ok {
		if fallback != nil {
			return i.evaluateRoot(fallback, env, out)
		}
		return interpError("Tried to load unknown pattern '%s'", name)
	}
	if i.loadDepth >= MaxLoadDepth {
		return interpError("load of '%s' exceeds maximum nesting depth %d", name, MaxLoadDepth)
	}
	i.loadDepth++
	defer func() { i.loadDepth-- }()
	return i.evaluateBlock(block, env, out)
}

func (i *Interpreter) evaluatePaste(fn *ast.Function, env *runtime.Environment, out *formatter.Formatter) error {
	name, fallback, err := i.storedName(fn, env)
	if err != nil {
		return err
	}
	copied, ok := i.session.clipboard[name]
	if !ok {
		if fallback != nil {
			return i.evaluateRoot(fallback, env, out)
		}
		return interpError("Tried to paste result of unknown block '%s'", name)
	}
	out.Append(copied)
	return nil
}
