package util

import (
	"github.com/google/uuid"
)

// IsValidUUID reports whether s parses as a canonical UUID. Path and body
// parameters that feed UUID columns are checked here so malformed ids fail
// as input errors instead of database errors.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
