package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is the identity record returned by the platform on a successful
// token exchange. The portal passes it through to the session unchanged.
type Contact struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Organization string    `json:"organization,omitempty"`
}

type Session struct {
	ID uuid.UUID

	// Platform session credential obtained from the token exchange.
	// Opaque to the portal, replayed on authenticated platform calls.
	Credential string

	Contact   Contact
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
