package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string identifier for application-owned
// entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
