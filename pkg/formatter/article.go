package formatter

import (
	"strings"
	"unicode"
)

// Exceptions to the leading-vowel rule, matched against the lower-cased
// first word following an article.
var (
	irregularAPrefixes  = []string{"uni", "use", "uri", "urol", "one", "uvu", "eul", "euk", "eur"}
	irregularAnPrefixes = []string{"honest", "honor", "hour", "8"}
	irregularAWords     = map[string]bool{"u": true}
	irregularAnWords    = map[string]bool{
		"f": true, "fbi": true, "fcc": true, "fda": true,
		"x": true, "l": true, "m": true, "n": true, "s": true, "h": true,
	}
)

// firstWord returns the first run of letters and digits in text.
func firstWord(text string) string {
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return text[start:i]
		}
	}
	if start < 0 {
		return ""
	}
	return text[start:]
}

// Article picks "a" or "an" for the word that follows it.
func Article(word string) string {
	word = strings.ToLower(word)
	if word == "" {
		return "a"
	}
	if irregularAWords[word] {
		return "a"
	}
	if irregularAnWords[word] {
		return "an"
	}
	for _, prefix := range irregularAPrefixes {
		if strings.HasPrefix(word, prefix) {
			return "a"
		}
	}
	for _, prefix := range irregularAnPrefixes {
		if strings.HasPrefix(word, prefix) {
			return "an"
		}
	}
	switch []rune(word)[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
