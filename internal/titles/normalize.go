package titles

import (
	"regexp"
	"strings"
)

// \s in Go matches ASCII whitespace only; \p{Z} picks up the Unicode space
// separators (no-break space and friends) so they collapse instead of vanish.
var (
	punctExpr = regexp.MustCompile(`[^a-z0-9\s\p{Z}]+`)
	spaceExpr = regexp.MustCompile(`[\s\p{Z}]+`)
)

// Normalize maps a raw headline to its canonical comparison form: lowercase,
// only ASCII letters, digits and single spaces, no surrounding whitespace.
// The function is pure and idempotent.
func Normalize(title string) string {
	lowered := strings.ToLower(title)
	stripped := punctExpr.ReplaceAllString(lowered, "")
	return strings.TrimSpace(spaceExpr.ReplaceAllString(stripped, " "))
}
