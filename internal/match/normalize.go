package match

import (
	"strings"
	"unicode"
)

// Fold lowercases s and drops separators. The package qualifier of a type
// name ("store." in "store.Order") is kept.
func Fold(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	for _, r := range s {
		if isSeparator(r) {
			continue
		}

		sb.WriteRune(unicode.ToLower(r))
	}

	return sb.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}
