// internal/app/system/normalize/normalize.go
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MobileNumber strips spaces, dashes, dots and parentheses so that
// "+91 98765-43210" and "+919876543210" key the same records.
// A leading "+" is kept.
func MobileNumber(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.', r == '(', r == ')':
			// separator
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FamilyCode uppercases and trims a family join code.
func FamilyCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Action lowercases and trims a join-request action.
func Action(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ProfileType lowercases and trims a profile type.
func ProfileType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
