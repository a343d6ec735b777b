package core

import "unicode/utf8"

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// CheckPassword returns one message per complexity rule the password
// breaks, or nil when it is acceptable.
func CheckPassword(password string) []string {
	var (
		problems                       []string
		hasUpper, hasDigit, hasSpecial bool
	)
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
		default:
			hasSpecial = true
		}
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, "Password must be at least 8 characters.")
	}
	if !hasUpper {
		problems = append(problems, "Password must contain at least one uppercase letter.")
	}
	if !hasDigit {
		problems = append(problems, "Password must contain at least one digit.")
	}
	if !hasSpecial {
		problems = append(problems, "Password must contain at least one special character.")
	}
	return problems
}
