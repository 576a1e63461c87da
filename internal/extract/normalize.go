package extract

import "strings"

// Normalize collapses every whitespace run into a single space and trims the ends.
// It is idempotent; empty input yields "".
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
