package interpreter

import (
	"fmt"
	"strconv"

	"github.com/dlclark/regexp2"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluate(node ast.Node, env *runtime.Environment, out *formatter.Formatter) error {
	switch n := node.(type) {
	case *ast.Root:
		return i.evaluateRoot(n, env, out)
	case *ast.Text:
		out.AppendText(n.Value)
		return nil
	case *ast.Digit:
		out.AppendText(strconv.Itoa(i.rng.IntN(10)))
		return nil
	case *ast.IndefiniteArticle:
		out.AddArticle(n.Upper)
		return nil
	case *ast.Lookup:
		return i.evaluateLookup(n, env, out)
	case *ast.Block:
		return i.evaluateBlock(n, env, out)
	case *ast.Function:
		return i.evaluateFunction(n, env, out)
	case *ast.Regex:
		return i.evaluateRegex(n, env, out)
	default:
		return fmt.Errorf("unsupported node type: %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateRoot(root *ast.Root, env *runtime.Environment, out *formatter.Formatter) error {
	if root == nil {
		return nil
	}
	for _, child := range root.Children {
		if err := i.evaluate(child, env, out); err != nil {
			return err
		}
	}
	return nil
}

// render evaluates root into its own formatter and resolves it.
func (i *Interpreter) render(root *ast.Root, env *runtime.Environment) (string, error) {
	f := formatter.New()
	if err := i.evaluateRoot(root, env, f); err != nil {
		return "", err
	}
	return f.Resolve(), nil
}

func (i *Interpreter) evaluateLookup(l *ast.Lookup, env *runtime.Environment, out *formatter.Formatter) error {
	if i.lookups == nil {
		return interpError("no dictionaries available for lookup <%s>", l.Dictionary)
	}
	node, err := i.lookups.Select(l, i.rng)
	if err != nil {
		return err
	}
	return i.evaluate(node, env, out)
}

func (i *Interpreter) evaluateRegex(r *ast.Regex, env *runtime.Environment, out *formatter.Formatter) error {
	re, err := i.compileRegex(r.Pattern, r.Flags)
	if err != nil {
		return err
	}
	scope, err := i.render(r.Scope, env)
	if err != nil {
		return err
	}

	var replaceErr error
	result, err := re.ReplaceFunc(scope, func(m regexp2.Match) string {
		if replaceErr != nil {
			return ""
		}
		scoped := env.Extend()
		scoped.Define(runtime.MatchBinding, runtime.StringValue{Val: m.String()})
		replacement, err := i.render(r.Replacement, scoped)
		if err != nil {
			replaceErr = err
			return ""
		}
		return replacement
	}, -1, -1)
	if replaceErr != nil {
		return replaceErr
	}
	if err != nil {
		return interpError("regex /%s/: %v", r.Pattern, err)
	}
	out.AppendText(result)
	return nil
}
