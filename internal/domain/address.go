package domain

import "regexp"

// Address identifies an account, an asset contract, or the market engine
// itself: "0x" followed by 40 lowercase hex characters.
type Address string

var addressRegex = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// ValidAddress reports whether s is a well-formed address.
func ValidAddress(s string) bool {
	return addressRegex.MatchString(s)
}
