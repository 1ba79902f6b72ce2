package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenRunes is the shortest token kept; single characters carry no signal.
const minTokenRunes = 2

// Tokenize splits text into lower-cased word tokens and drops stopwords.
// A token is a maximal run of letters, digits, marks or underscores.
func Tokenize(text string) []string {
	var tokens []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = appendToken(tokens, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = appendToken(tokens, text[start:])
	}
	return tokens
}

func appendToken(tokens []string, word string) []string {
	if utf8.RuneCountInString(word) < minTokenRunes {
		return tokens
	}
	word = strings.ToLower(word)
	if IsStopword(word) {
		return tokens
	}
	return append(tokens, word)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
