// Package storage provides durable client storage for the session credential
// and role. Every backend persists exactly two scalar values under fixed keys
// and changes them together.
package storage

import (
	"context"
)

// Well-known keys of the persisted session fields.
const (
	KeyToken = "token"
	KeyRole  = "role"
)

// Record is the persisted pair. The zero value means "nothing stored".
type Record struct {
	Token string
	Role  string
}

// IsZero reports whether nothing is stored.
func (r Record) IsZero() bool {
	return r.Token == "" && r.Role == ""
}

// Storage is a durable home for the session Record.
type Storage interface {
	// Load returns the stored record, or the zero Record when nothing is stored.
	Load(ctx context.Context) (Record, error)
	// Save replaces both fields at once.
	Save(ctx context.Context, rec Record) error
	// Clear removes both fields at once. Clearing empty storage is not an error.
	Clear(ctx context.Context) error
}
