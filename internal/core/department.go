package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Corsica was split in two departments that share the 20xxx postal range.
const (
	corseDuSudFirst  = 20000
	corseDuSudLast   = 20199
	hauteCorseFirst  = 20200
	hauteCorseLast   = 20999
	overseasPrefix   = "97"
	postalCodeLength = 5
)

// DepartmentCode maps a five-digit French postal code to the code of its
// department. The rules are applied in order:
//
//	20000-20199 -> "2A"
//	20200-20999 -> "2B"
//	97xxx       -> first three digits (overseas departments)
//	otherwise   -> first two digits
func DepartmentCode(postalCode string) (string, error) {
	zip, n, err := normalizePostalCode(postalCode)
	if err != nil {
		return "", err
	}
	switch {
	case n >= corseDuSudFirst && n <= corseDuSudLast:
		return "2A", nil
	case n >= hauteCorseFirst && n <= hauteCorseLast:
		return "2B", nil
	case strings.HasPrefix(zip, overseasPrefix):
		return zip[:3], nil
	default:
		return zip[:2], nil
	}
}

// DepartmentCodeFromNumber is DepartmentCode for postal codes that arrived
// as numbers; the leading zero lost by such input is restored.
func DepartmentCodeFromNumber(postalCode int) (string, error) {
	if postalCode < 0 || postalCode > 99999 {
		return "", fmt.Errorf("postal code %d: %w", postalCode, ErrInvalidPostalCode)
	}
	return DepartmentCode(fmt.Sprintf("%05d", postalCode))
}

// NormalizePostalCode trims the input and checks it is five ASCII digits.
func NormalizePostalCode(postalCode string) (string, error) {
	zip, _, err := normalizePostalCode(postalCode)
	return zip, err
}

func normalizePostalCode(postalCode string) (string, int, error) {
	zip := strings.TrimSpace(postalCode)
	if len(zip) != postalCodeLength {
		return "", 0, fmt.Errorf("postal code %q: %w", postalCode, ErrInvalidPostalCode)
	}
	for _, r := range zip {
		if r < '0' || r > '9' {
			return "", 0, fmt.Errorf("postal code %q: %w", postalCode, ErrInvalidPostalCode)
		}
	}
	n, err := strconv.Atoi(zip)
	if err != nil {
		return "", 0, fmt.Errorf("postal code %q: %w", postalCode, ErrInvalidPostalCode)
	}
	return zip, n, nil
}
