package normalize

import "strings"

// Identity canonicalizes a raw customer email for use as an aggregation key.
// Empty input stays empty; callers must never aggregate on an empty key.
func Identity(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
