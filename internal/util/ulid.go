package util

import (
	"regexp"

	"github.com/oklog/ulid/v2"
)

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// NewULID returns a new, lexically sortable ULID string. ulid.Make is safe for
// concurrent use and monotonic within the same millisecond.
func NewULID() string {
	return ulid.Make().String()
}

// IsValidULID reports whether s is a canonical upper-case ULID.
func IsValidULID(s string) bool {
	return ulidPattern.MatchString(s)
}
