package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, collapses whitespace runs to a
// single space and cuts the result to maxLen runes (0 means no limit).
func SanitizeString(input string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(input))

	runes, pendingSpace := 0, false
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace && runes > 0 {
			if maxLen > 0 && runes+1 >= maxLen {
				break
			}
			b.WriteRune(' ')
			runes++
		}
		pendingSpace = false
		if maxLen > 0 && runes >= maxLen {
			break
		}
		b.WriteRune(r)
		runes++
	}
	return b.String()
}
