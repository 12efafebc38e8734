package common

import "strconv"

// ParseAmount converts a catalog money string into an integer amount. Legacy
// catalog imports carry currency symbols, thousands separators, and stray
// whitespace; anything that is not a digit is discarded and a string without
// digits parses to zero. The price display must never fail on bad input.
func ParseAmount(value string) int64 {
	digits := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] >= '0' && value[i] <= '9' {
			digits = append(digits, value[i])
		}
	}
	if len(digits) == 0 {
		return 0
	}
	parsed, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// AtoiDefault converts the provided string to an integer falling back to the default when parsing fails.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
