package core

import "strings"

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// NormalizeHex accepts a 3- or 6-digit hex color, with or without a
// leading #, expands shorthand and uppercases. The second return is false
// for anything else.
func NormalizeHex(value string) (string, bool) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(raw) != 3 && len(raw) != 6 {
		return "", false
	}
	for _, r := range raw {
		if !isHexDigit(r) {
			return "", false
		}
	}
	if len(raw) == 3 {
		var b strings.Builder
		for _, r := range raw {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		raw = b.String()
	}
	return "#" + strings.ToUpper(raw), true
}
