package interpreter

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"twaddle/interpreter-go/pkg/runtime"
)

// DecimalPlaces bounds the precision of non-integer results.
const DecimalPlaces = 3

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// number is an integer when isInt is set, a float otherwise.
type number struct {
	isInt bool
	i     *big.Int
	f     float64
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if integerPattern.MatchString(s) {
		if i, ok := new(big.Int).SetString(strings.TrimPrefix(s, "+"), 10); ok {
			return number{isInt: true, i: i}, true
		}
	}
	if decimalPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return number{f: f}, true
		}
	}
	return number{}, false
}

func (n number) float() float64 {
	if !n.isInt {
		return n.f
	}
	f, _ := new(big.Float).SetInt(n.i).Float64()
	return f
}

func (n number) bigFloat() *big.Float {
	if n.isInt {
		return new(big.Float).SetInt(n.i)
	}
	return big.NewFloat(n.f)
}

func (n number) sign() int {
	if n.isInt {
		return n.i.Sign()
	}
	switch {
	case n.f > 0:
		return 1
	case n.f < 0:
		return -1
	default:
		return 0
	}
}

func (n number) String() string {
	if n.isInt {
		return n.i.String()
	}
	return formatFloat(n.f)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', DecimalPlaces, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// truthy reports whether s counts as true: numbers when positive, anything
// else when it is not blank.
func truthy(s string) bool {
	if n, ok := parseNumber(s); ok {
		return n.sign() > 0
	}
	return strings.TrimSpace(s) != ""
}

func boolString(b bool) runtime.Value {
	if b {
		return runtime.StringValue{Val: "1"}
	}
	return runtime.StringValue{Val: "0"}
}

func parseNumbers(name string, args []string) ([]number, error) {
	out := make([]number, len(args))
	for idx, arg := range args {
		n, ok := parseNumber(arg)
		if !ok {
			return nil, functionError(name, "invalid numeric argument '%s'", strings.TrimSpace(arg))
		}
		out[idx] = n
	}
	return out, nil
}

func allInts(nums []number) bool {
	for _, n := range nums {
		if !n.isInt {
			return false
		}
	}
	return true
}

type fold struct {
	ints   func(acc, next *big.Int) *big.Int
	floats func(acc, next float64) float64
}

var folds = map[string]fold{
	"add": {
		ints:   func(acc, next *big.Int) *big.Int { return acc.Add(acc, next) },
		floats: func(acc, next float64) float64 { return acc + next },
	},
	"subtract": {
		ints:   func(acc, next *big.Int) *big.Int { return acc.Sub(acc, next) },
		floats: func(acc, next float64) float64 { return acc - next },
	},
	"multiply": {
		ints:   func(acc, next *big.Int) *big.Int { return acc.Mul(acc, next) },
		floats: func(acc, next float64) float64 { return acc * next },
	},
}

func arithmetic(name string) runtime.NativeFunc {
	op := folds[name]
	return func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
		if len(args) < 2 {
			return nil, functionError(name, "%s requires at least two numbers", name)
		}
		nums, err := parseNumbers(name, args)
		if err != nil {
			return nil, err
		}
		if allInts(nums) {
			acc := new(big.Int).Set(nums[0].i)
			for _, n := range nums[1:] {
				acc = op.ints(acc, n.i)
			}
			return runtime.StringValue{Val: acc.String()}, nil
		}
		acc := nums[0].float()
		for _, n := range nums[1:] {
			acc = op.floats(acc, n.float())
		}
		return runtime.StringValue{Val: formatFloat(acc)}, nil
	}
}

func divide(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
	if len(args) != 2 {
		return nil, functionError("divide", "divide requires exactly two numbers")
	}
	nums, err := parseNumbers("divide", args)
	if err != nil {
		return nil, err
	}
	if nums[1].sign() == 0 {
		return nil, functionError("divide", "cannot divide by zero")
	}
	if allInts(nums) {
		quo, rem := new(big.Int).QuoRem(nums[0].i, nums[1].i, new(big.Int))
		if rem.Sign() == 0 {
			return runtime.StringValue{Val: quo.String()}, nil
		}
	}
	return runtime.StringValue{Val: formatFloat(nums[0].float() / nums[1].float())}, nil
}

func comparison(name string, want func(cmp int) bool) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
		nums, err := parseNumbers(name, args)
		if err != nil {
			return nil, err
		}
		return boolString(want(nums[0].bigFloat().Cmp(nums[1].bigFloat()))), nil
	}
}

func equalTo(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
	a, okA := parseNumber(args[0])
	b, okB := parseNumber(args[1])
	if okA && okB {
		return boolString(a.bigFloat().Cmp(b.bigFloat()) == 0), nil
	}
	return boolString(strings.TrimSpace(args[0]) == strings.TrimSpace(args[1])), nil
}

func registerNumericBuiltins(i *Interpreter) {
	i.registerNative(runtime.NativeFunctionValue{Name: "add", MinArgs: 0, MaxArgs: variadic, Impl: arithmetic("add")})
	i.registerNative(runtime.NativeFunctionValue{Name: "subtract", MinArgs: 0, MaxArgs: variadic, Impl: arithmetic("subtract")}, "sub")
	i.registerNative(runtime.NativeFunctionValue{Name: "multiply", MinArgs: 0, MaxArgs: variadic, Impl: arithmetic("multiply")}, "mul")
	i.registerNative(runtime.NativeFunctionValue{Name: "divide", MinArgs: 0, MaxArgs: variadic, Impl: divide}, "div")

	i.registerNative(runtime.NativeFunctionValue{
		Name: "less_than", MinArgs: 2, MaxArgs: 2,
		Impl: comparison("less_than", func(c int) bool { return c < 0 }),
	}, "lt")
	i.registerNative(runtime.NativeFunctionValue{
		Name: "greater_than", MinArgs: 2, MaxArgs: 2,
		Impl: comparison("greater_than", func(c int) bool { return c > 0 }),
	}, "gt")
	i.registerNative(runtime.NativeFunctionValue{Name: "equal_to", MinArgs: 2, MaxArgs: 2, Impl: equalTo}, "eq")
}

func registerLogicBuiltins(i *Interpreter) {
	i.registerNative(runtime.NativeFunctionValue{
		Name: "bool", MinArgs: 1, MaxArgs: 1,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			return boolString(truthy(args[0])), nil
		},
	})
	i.registerNative(runtime.NativeFunctionValue{
		Name: "not", MinArgs: 1, MaxArgs: 1,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			return boolString(!truthy(args[0])), nil
		},
	})
	i.registerNative(runtime.NativeFunctionValue{
		Name: "and", MinArgs: 2, MaxArgs: variadic,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			for _, arg := range args {
				if !truthy(arg) {
					return boolString(false), nil
				}
			}
			return boolString(true), nil
		},
	})
	i.registerNative(runtime.NativeFunctionValue{
		Name: "or", MinArgs: 2, MaxArgs: variadic,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			for _, arg := range args {
				if truthy(arg) {
					return boolString(true), nil
				}
			}
			return boolString(false), nil
		},
	})
	i.registerNative(runtime.NativeFunctionValue{
		Name: "xor", MinArgs: 2, MaxArgs: 2,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			return boolString(truthy(args[0]) != truthy(args[1])), nil
		},
	})
}
