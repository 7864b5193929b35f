package interpreter

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"twaddle/interpreter-go/pkg/ast"
	"twaddle/interpreter-go/pkg/formatter"
	"twaddle/interpreter-go/pkg/runtime"
	"twaddle/interpreter-go/pkg/synchronizer"
)

// evaluateBlock consumes the staged attributes and renders block under them.
func (i *Interpreter) evaluateBlock(block *ast.Block, env *runtime.Environment, out *formatter.Formatter) error {
	attrs := i.session.staging.Consume()
	if attrs.While != nil && attrs.HasRepetitions {
		return interpError("a block cannot have both a repetition count and a while condition")
	}

	var sync synchronizer.Synchronizer
	if attrs.SyncName != "" {
		s, created, err := i.session.syncs.Resolve(attrs.SyncName, attrs.SyncType, len(block.Choices), i.opts.Strict)
		if err != nil {
			return &Error{Message: err.Error()}
		}
		if created {
			i.logger.Debug("synchronizer created",
				zap.String("name", attrs.SyncName),
				zap.String("type", string(s.Type())),
				zap.Int("choices", s.Choices()))
		}
		sync = s
	}

	pick := func() (int, error) {
		if sync == nil {
			return i.rng.IntN(len(block.Choices)), nil
		}
		idx := sync.Next()
		if idx >= len(block.Choices) {
			return 0, interpError("synchronizer '%s' selected choice %d of a block with %d choices; blocks sharing a synchronizer need the same number of choices",
				attrs.SyncName, idx+1, len(block.Choices))
		}
		return idx, nil
	}

	result := formatter.New()
	var err error
	if attrs.While != nil {
		err = i.repeatWhile(block, attrs, pick, env, result)
	} else {
		err = i.repeatCount(block, attrs, pick, env, result)
	}
	if err != nil {
		return err
	}

	if attrs.SaveAs != "" {
		i.session.patterns[attrs.SaveAs] = block
	}
	if attrs.CopyAs != "" {
		i.session.clipboard[attrs.CopyAs] = result.Clone()
	}
	switch {
	case attrs.Hidden:
		return nil
	case attrs.Reversed:
		out.AppendText(reverse(result.Resolve()))
	case attrs.Abbreviated:
		out.AppendText(abbreviate(result.Resolve(), attrs.AbbreviationCase))
	default:
		out.Append(result)
	}
	return nil
}

func (i *Interpreter) emit(root *ast.Root, env *runtime.Environment, out *formatter.Formatter) error {
	if root == nil {
		return nil
	}
	return i.evaluateRoot(root, env, out)
}

// repeatCount renders the block a fixed number of times. The first
// iteration is preceded by first if staged; the final one by last, or by
// separator when no last is staged. Every other gap gets the separator.
func (i *Interpreter) repeatCount(block *ast.Block, attrs *runtime.BlockAttributes, pick func() (int, error), env *runtime.Environment, out *formatter.Formatter) error {
	reps := attrs.Repetitions
	separator, first, last := attrs.Separator, attrs.First, attrs.Last
	if reps < 2 {
		separator, first, last = nil, nil, nil
	}

	firstIteration := true
	for reps > 0 {
		choice, err := pick()
		if err != nil {
			return err
		}
		switch {
		case firstIteration && first != nil:
			if err := i.emit(first, env, out); err != nil {
				return err
			}
		case reps == 1 && last != nil:
			if err := i.emit(last, env, out); err != nil {
				return err
			}
		case reps == 1:
			if err := i.emit(separator, env, out); err != nil {
				return err
			}
		}
		firstIteration = false
		reps--

		if err := i.evaluateRoot(block.Choices[choice], env, out); err != nil {
			return err
		}
		if reps > 1 {
			if err := i.emit(separator, env, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// repeatWhile renders the block until its condition is falsy or the
// iteration cap is reached.
func (i *Interpreter) repeatWhile(block *ast.Block, attrs *runtime.BlockAttributes, pick func() (int, error), env *runtime.Environment, out *formatter.Formatter) error {
	for iteration := 0; ; iteration++ {
		if iteration >= i.opts.MaxWhileIterations {
			i.logger.Debug("while loop stopped at iteration cap", zap.Int("cap", i.opts.MaxWhileIterations))
			return nil
		}
		condition, err := i.render(attrs.While, env)
		if err != nil {
			return err
		}
		if !truthy(condition) {
			return nil
		}
		choice, err := pick()
		if err != nil {
			return err
		}
		prefix := attrs.Separator
		if iteration == 0 {
			prefix = attrs.First
		}
		if err := i.emit(prefix, env, out); err != nil {
			return err
		}
		if err := i.evaluateRoot(block.Choices[choice], env, out); err != nil {
			return err
		}
	}
}

func reverse(s string) string {
	runes := []rune(s)
	for a, b := 0, len(runes)-1; a < b; a, b = a+1, b-1 {
		runes[a], runes[b] = runes[b], runes[a]
	}
	return string(runes)
}

// abbreviate keeps one letter, or a whole run of digits, from each word.
func abbreviate(s string, strategy formatter.Strategy) string {
	var b strings.Builder
	for _, word := range strings.Fields(s) {
		runes := []rune(word)
		for idx, r := range runes {
			if unicode.IsLetter(r) {
				b.WriteRune(r)
				break
			}
			if unicode.IsDigit(r) {
				end := idx
				for end < len(runes) && unicode.IsDigit(runes[end]) {
					end++
				}
				b.WriteString(string(runes[idx:end]))
				break
			}
		}
	}
	return strategy.Apply("", b.String())
}
