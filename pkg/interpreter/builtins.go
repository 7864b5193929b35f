package interpreter

import (
	"strconv"
	"strings"

	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/runtime"
	"twaddle/interpreter-go/pkg/synchronizer"
)

const variadic = -1

func (i *Interpreter) registerNative(fn runtime.NativeFunctionValue, aliases ...string) {
	i.Register(fn.Name, fn)
	for _, alias := range aliases {
		i.Register(alias, fn)
	}
}

func registerBuiltins(i *Interpreter) {
	registerStagingBuiltins(i)
	registerFormattingBuiltins(i)
	registerNumericBuiltins(i)
	registerLogicBuiltins(i)
}

var nothing runtime.Value = runtime.NilValue{}

func registerStagingBuiltins(i *Interpreter) {
	i.registerNative(runtime.NativeFunctionValue{
		Name: "repeat", MinArgs: 1, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || n < 0 {
				return nil, functionError("repeat", "invalid repetition count '%s'", strings.TrimSpace(args[0]))
			}
			attrs := ctx.Attributes.Current()
			attrs.Repetitions = n
			attrs.HasRepetitions = true
			return nothing, nil
		},
	}, "rep")

	i.registerNative(runtime.NativeFunctionValue{
		Name: "separator", MinArgs: 1, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, _ []string) (runtime.Value, error) {
			ctx.Attributes.Current().Separator = ctx.Raw[0]
			return nothing, nil
		},
	}, "sep")

	i.registerNative(runtime.NativeFunctionValue{
		Name: "first", MinArgs: 1, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, _ []string) (runtime.Value, error) {
			ctx.Attributes.Current().First = ctx.Raw[0]
			return nothing, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "last", MinArgs: 1, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, _ []string) (runtime.Value, error) {
			ctx.Attributes.Current().Last = ctx.Raw[0]
			return nothing, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "sync", MinArgs: 1, MaxArgs: 2,
		Impl: func(ctx *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return nil, functionError("sync", "synchronizer name must not be blank")
			}
			attrs := ctx.Attributes.Current()
			attrs.SyncName = name
			attrs.SyncType = ""
			if len(args) == 2 {
				t, err := synchronizer.ParseType(args[1])
				if err != nil {
					return nil, functionError("sync", "%v", err)
				}
				attrs.SyncType = t
			}
			return nothing, nil
		},
	}, "x")

	i.registerNative(runtime.NativeFunctionValue{
		Name: "save", MinArgs: 1, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			ctx.Attributes.Current().SaveAs = strings.TrimSpace(args[0])
			return nothing, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "copy", MinArgs: 1, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			ctx.Attributes.Current().CopyAs = strings.TrimSpace(args[0])
			return nothing, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "hide", MinArgs: 0, MaxArgs: 0,
		Impl: func(ctx *runtime.NativeCallContext, _ []string) (runtime.Value, error) {
			ctx.Attributes.Current().Hidden = true
			return nothing, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "reverse", MinArgs: 0, MaxArgs: 0,
		Impl: func(ctx *runtime.NativeCallContext, _ []string) (runtime.Value, error) {
			ctx.Attributes.Current().Reversed = true
			return nothing, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "abbreviate", MinArgs: 0, MaxArgs: 1,
		Impl: func(ctx *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			strategy := formatter.StrategyUpper
			if len(args) == 1 {
				switch arg := strings.ToLower(strings.TrimSpace(args[0])); arg {
				case "", "upper":
					strategy = formatter.StrategyUpper
				case "retain":
					strategy = formatter.StrategyNone
				case "lower":
					strategy = formatter.StrategyLower
				case "first":
					strategy = formatter.StrategyTitle
				default:
					return nil, functionError("abbreviate", "invalid case argument '%s'", arg)
				}
			}
			attrs := ctx.Attributes.Current()
			attrs.Abbreviated = true
			attrs.AbbreviationCase = strategy
			return nothing, nil
		},
	}, "abbr")

	// while takes its condition unevaluated; the block re-renders it before
	// every iteration.
	i.Register("while", runtime.NativeFunctionValue{
		Name: "while", MinArgs: 0, MaxArgs: variadic,
		Impl: func(ctx *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			if len(ctx.Raw) != 1 {
				return nil, interpError("while expects exactly one condition, got %d argument(s)", len(ctx.Raw))
			}
			ctx.Attributes.Current().While = ctx.Raw[0]
			return nothing, nil
		},
	})
}

func registerFormattingBuiltins(i *Interpreter) {
	i.registerNative(runtime.NativeFunctionValue{
		Name: "case", MinArgs: 1, MaxArgs: 1,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			strategy, ok := formatter.ParseStrategy(args[0])
			if !ok {
				return nil, functionError("case", "unknown case strategy '%s'", strings.TrimSpace(args[0]))
			}
			return runtime.StrategyValue{Strategy: strategy}, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "match", MinArgs: 0, MaxArgs: 0,
		Impl: func(ctx *runtime.NativeCallContext, _ []string) (runtime.Value, error) {
			value, ok := ctx.Env.Lookup(runtime.MatchBinding)
			if !ok {
				return nil, functionError("match", "used outside of a regex replacement")
			}
			return value, nil
		},
	})

	i.registerNative(runtime.NativeFunctionValue{
		Name: "rand", MinArgs: 2, MaxArgs: 2,
		Impl: func(_ *runtime.NativeCallContext, args []string) (runtime.Value, error) {
			lo, errLo := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			hi, errHi := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
			if errLo != nil || errHi != nil {
				return nil, functionError("rand", "bounds must be integers, got '%s' and '%s'", strings.TrimSpace(args[0]), strings.TrimSpace(args[1]))
			}
			if lo > hi {
				return nil, functionError("rand", "minimum %d is greater than maximum %d", lo, hi)
			}
			// hi-lo can exceed MaxInt64; a span of 0 means the full int64 range.
			span := uint64(hi-lo) + 1
			var offset uint64
			if span == 0 {
				offset = i.rng.Uint64()
			} else {
				offset = i.rng.Uint64N(span)
			}
			return runtime.StringValue{Val: strconv.FormatInt(lo+int64(offset), 10)}, nil
		},
	})
}
