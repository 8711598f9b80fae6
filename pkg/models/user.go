package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated account. Identity comes from the auth provider's
// LinkedIn sign-in; the row is created on first authenticated session.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	LinkedInID string    `json:"linkedin_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FirstName returns the leading word of the user's full name, used in
// personalization strings. Empty if the name is unset.
func (u *User) FirstName() string {
	for i, r := range u.FullName {
		if r == ' ' {
			return u.FullName[:i]
		}
	}
	return u.FullName
}
