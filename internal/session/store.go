// Package session owns the portal's session lifecycle: absent ->
// established (by the login flow only) -> cleared on logout or expiry.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerbook/portal/internal/models"
)

const DefaultTTL = 30 * 24 * time.Hour

// Establisher is the narrow write capability handed to the login flow.
// Nothing else in the portal may create sessions.
type Establisher interface {
	Establish(ctx context.Context, credential string, contact models.Contact) (models.Session, error)
}

// Store gives access to established sessions.
//
// Get must not return expired sessions: it has to return
// apperrors.ErrSessionExpired instead.
type Store interface {
	Establisher

	Get(ctx context.Context, id uuid.UUID) (models.Session, error)
	Clear(ctx context.Context, id uuid.UUID) error

	// Remove expired sessions, return how many were removed
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenLog records redeemed magic-link tokens so a replayed link fails
// deterministically even across portal restarts.
type TokenLog interface {
	// Has to return apperrors.ErrTokenAlreadyConsumed on repeated token
	MarkConsumed(ctx context.Context, tokenHash string) error

	// Remove consumption records older than 'before', return how many were removed
	DeleteConsumedBefore(ctx context.Context, before time.Time) (int64, error)
}

// HashToken returns the hex sha256 of a raw magic-link token.
// Raw tokens are never stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
