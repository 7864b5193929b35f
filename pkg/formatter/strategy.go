package formatter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy is a case transformation applied to text as it is resolved.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyUpper
	StrategyLower
	StrategySentence
	StrategyTitle
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyUpper:
		return "upper"
	case StrategyLower:
		return "lower"
	case StrategySentence:
		return "sentence"
	case StrategyTitle:
		return "title"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps a case name to its strategy.
func ParseStrategy(name string) (Strategy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none":
		return StrategyNone, true
	case "upper":
		return StrategyUpper, true
	case "lower":
		return StrategyLower, true
	case "sentence":
		return StrategySentence, true
	case "title":
		return StrategyTitle, true
	default:
		return StrategyNone, false
	}
}

// Apply transforms text under s. prev is everything already resolved, which
// decides whether text begins a word or a sentence.
func (s Strategy) Apply(prev, text string) string {
	switch s {
	case StrategyUpper:
		return strings.ToUpper(text)
	case StrategyLower:
		return strings.ToLower(text)
	case StrategyTitle:
		return titleCase(prev, text)
	case StrategySentence:
		return sentenceCase(prev, text)
	default:
		return text
	}
}

func lastRune(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	r, _ := utf8.DecodeLastRuneInString(s)
	return r, true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func titleCase(prev, text string) string {
	wordStart := true
	if r, ok := lastRune(prev); ok {
		wordStart = unicode.IsSpace(r)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if wordStart {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		wordStart = unicode.IsSpace(r)
	}
	return b.String()
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func sentenceCase(prev, text string) string {
	sentenceStart := true
	if r, ok := lastRune(strings.TrimRightFunc(prev, unicode.IsSpace)); ok {
		sentenceStart = isSentenceEnd(r)
	}
	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		if sentenceStart {
			runes[i] = unicode.ToUpper(r)
		} else {
			runes[i] = unicode.ToLower(r)
		}
		sentenceStart = isSentenceEnd(r)
	}

	// A lone "i" is always the pronoun.
	before, hasBefore := lastRune(prev)
	for i, r := range runes {
		if r != 'i' {
			continue
		}
		if i > 0 {
			if isWordRune(runes[i-1]) {
				continue
			}
		} else if hasBefore && isWordRune(before) {
			continue
		}
		if i+1 < len(runes) && isWordRune(runes[i+1]) {
			continue
		}
		runes[i] = 'I'
	}
	return string(runes)
}
