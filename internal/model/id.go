package model

import "github.com/oklog/ulid/v2"

// NewID returns a new lexically sortable entity ID.
func NewID() string {
	return ulid.Make().String()
}
