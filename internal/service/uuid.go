package service

import "github.com/google/uuid"

// UUIDGenerator mints turn and session identifiers.
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator issues random v4 UUIDs.
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

var _ UUIDGenerator = (*DefaultUUIDGenerator)(nil)
