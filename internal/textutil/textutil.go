package textutil

import (
	"strings"
	"unicode"
)

// punctuation kept by Normalize besides letters, digits, marks and underscores.
const allowedPunct = "-.,:;()/"

// Normalize makes a scraped text fragment presentation-safe: characters outside
// the allow-list are dropped, whitespace runs collapse to one space and the ends
// are trimmed. Empty input gives empty output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			b.WriteRune(r)
		case strings.ContainsRune(allowedPunct, r):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
