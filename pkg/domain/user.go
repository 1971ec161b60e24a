package domain

import "github.com/google/uuid"

// User is a read-only projection of an account owned by the identity
// service. The teams service never creates or mutates users; it only joins
// display fields and resolves email addresses to user ids.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         *string
	ProfileImage *string
}
