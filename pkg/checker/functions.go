package checker

import (
	"strconv"
	"strings"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/interpreter"
	"twaddle/interpreter-go/pkg/runtime"
	"twaddle/interpreter-go/pkg/synchronizer"
)

var aliases = map[string]string{
	"rep":  "repeat",
	"sep":  "separator",
	"x":    "sync",
	"abbr": "abbreviate",
}

// stagingFunctions configure the next block instead of producing output.
var stagingFunctions = map[string]bool{
	"repeat":     true,
	"separator":  true,
	"first":      true,
	"last":       true,
	"sync":       true,
	"save":       true,
	"copy":       true,
	"hide":       true,
	"reverse":    true,
	"abbreviate": true,
	"while":      true,
}

func canonicalName(name string) string {
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

func (c *Checker) checkFunction(call *ast.Function) []Diagnostic {
	if interpreter.IsSpecialForm(call.Name) {
		return c.checkSpecialForm(call)
	}

	var diags []Diagnostic
	name := canonicalName(call.Name)
	if c.opts.Functions != nil {
		fn, ok := c.opts.Functions.Function(call.Name)
		if !ok {
			diags = append(diags, c.errorf(call, "no function found named '%s'", call.Name))
		} else if native, ok := fn.(runtime.NativeFunctionValue); ok {
			name = native.Name
			if n := len(call.Arguments); n < native.MinArgs || (native.MaxArgs >= 0 && n > native.MaxArgs) {
				err := &runtime.ArityError{Name: native.Name, Got: n, Min: native.MinArgs, Max: native.MaxArgs}
				diags = append(diags, c.errorf(call, "function %s: %v", call.Name, err))
			}
		}
	}

	for _, arg := range call.Arguments {
		diags = append(diags, c.checkRoot(arg)...)
	}
	diags = append(diags, c.checkArguments(name, call)...)
	if stagingFunctions[name] {
		c.stage(name, call)
	}
	return diags
}

// checkArguments validates arguments that are plain text and so known
// before evaluation.
func (c *Checker) checkArguments(name string, call *ast.Function) []Diagnostic {
	arg, ok := literal(firstArg(call))
	if !ok || len(call.Arguments) == 0 {
		if name == "match" && !c.inRegexContext() {
			return []Diagnostic{c.errorf(call, "[match] is used outside of a regex replacement")}
		}
		return nil
	}
	switch name {
	case "repeat":
		if n, err := strconv.Atoi(arg); err != nil || n < 0 {
			return []Diagnostic{c.errorf(call, "invalid repetition count '%s'", arg)}
		}
	case "sync":
		if arg == "" {
			return []Diagnostic{c.errorf(call, "synchronizer name must not be blank")}
		}
		if len(call.Arguments) == 2 {
			if typ, ok := literal(call.Arguments[1]); ok {
				if _, err := synchronizer.ParseType(typ); err != nil {
					return []Diagnostic{c.errorf(call, "%v", err)}
				}
			}
		}
	case "case":
		if _, ok := formatter.ParseStrategy(arg); !ok {
			return []Diagnostic{c.errorf(call, "unknown case strategy '%s'", arg)}
		}
	case "abbreviate":
		switch strings.ToLower(arg) {
		case "", "upper", "retain", "lower", "first":
		default:
			return []Diagnostic{c.errorf(call, "invalid abbreviation case '%s'", arg)}
		}
	}
	return nil
}

func (c *Checker) checkSpecialForm(call *ast.Function) []Diagnostic {
	var diags []Diagnostic
	n := len(call.Arguments)
	switch call.Name {
	case "if":
		if n < 2 || n > 3 {
			diags = append(diags, c.errorf(call, "if expects a condition and one or two branches, got %d argument(s)", n))
		}
	case "load", "paste":
		if n < 1 || n > 2 {
			diags = append(diags, c.errorf(call, "%s expects a name and an optional fallback, got %d argument(s)", call.Name, n))
			break
		}
		stored := c.saved
		if call.Name == "paste" {
			stored = c.copied
		}
		if name, ok := literal(call.Arguments[0]); ok && n == 1 && !stored[name] {
			diags = append(diags, c.warnf(call, "[%s:%s] has no fallback and '%s' is not stored earlier in this pattern", call.Name, name, name))
		}
	}
	for _, arg := range call.Arguments {
		diags = append(diags, c.checkRoot(arg)...)
	}
	return diags
}

func (c *Checker) checkRegex(re *ast.Regex) []Diagnostic {
	var diags []Diagnostic
	if _, err := interpreter.CompileRegex(re.Pattern, re.Flags); err != nil {
		diags = append(diags, c.errorf(re, "%v", err))
	}
	diags = append(diags, c.checkRoot(re.Scope)...)
	c.pushRegexContext()
	diags = append(diags, c.checkRoot(re.Replacement)...)
	c.popRegexContext()
	return diags
}
