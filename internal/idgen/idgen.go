// Package idgen generates identifiers for new records.
package idgen

import "github.com/google/uuid"

// New returns a new unique identifier.
//
// IDs are UUIDv7: a millisecond timestamp followed by random bits, so they
// sort in creation order within a process. If the random source fails New
// falls back to a random (v4) UUID.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
