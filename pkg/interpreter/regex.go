package interpreter

import (
	"github.com/dlclark/regexp2"
)

var regexFlags = map[rune]regexp2.RegexOptions{
	'i': regexp2.IgnoreCase,
	'm': regexp2.Multiline,
	's': regexp2.Singleline,
	'x': regexp2.IgnorePatternWhitespace,
}

// compileRegex compiles pattern with the given flag letters, caching the
// result for the life of the interpreter.
func (i *Interpreter) compileRegex(pattern, flags string) (*regexp2.Regexp, error) {
	key := flags + "\x00" + pattern
	if re, ok := i.regexes[key]; ok {
		return re, nil
	}
	re, err := CompileRegex(pattern, flags)
	if err != nil {
		return nil, err
	}
	i.regexes[key] = re
	return re, nil
}

// CompileRegex compiles the pattern of a regex node. Flags are the letters
// i, m, s and x.
func CompileRegex(pattern, flags string) (*regexp2.Regexp, error) {
	var opts regexp2.RegexOptions
	for _, flag := range flags {
		opt, ok := regexFlags[flag]
		if !ok {
			return nil, interpError("unknown regex flag '%c' in //%s//%s", flag, pattern, flags)
		}
		opts |= opt
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, interpError("invalid regex //%s//: %v", pattern, err)
	}
	return re, nil
}
