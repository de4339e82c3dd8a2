// Package postgres is the durable backend for sessions and the
// consumed-token log.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerbook/portal/internal/apperrors"
	"github.com/ledgerbook/portal/internal/models"
	"github.com/ledgerbook/portal/internal/session"
)

// DBTX matches both *pgxpool.Pool and pgx.Tx, so repos run in tests inside
// a rolled-back transaction
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	DB  DBTX
	TTL time.Duration
}

func NewStore(db DBTX, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	return &Store{DB: db, TTL: ttl}
}

const establishSession = `-- name: EstablishSession
INSERT INTO sessions (id, credential, contact_id, contact_name, contact_email, contact_org, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, credential, contact_id, contact_name, contact_email, contact_org, created_at, expires_at
`

func (s *Store) Establish(ctx context.Context, credential string, contact models.Contact) (models.Session, error) {
	now := time.Now().Truncate(time.Second)

	rows, _ := s.DB.Query(ctx, establishSession,
		uuid.New(), credential,
		contact.ID, contact.Name, contact.Email, contact.Organization,
		now, now.Add(s.TTL),
	)
	established, err := pgx.CollectOneRow(rows, rowToSession)
	if err != nil {
		return established, fmt.Errorf("db error: %w", err)
	}

	return established, nil
}

const getSession = `-- name: GetSession
SELECT id, credential, contact_id, contact_name, contact_email, contact_org, created_at, expires_at
FROM sessions
WHERE id = $1
`

func (s *Store) Get(ctx context.Context, id uuid.UUID) (models.Session, error) {
	rows, _ := s.DB.Query(ctx, getSession, id)
	found, err := pgx.CollectOneRow(rows, rowToSession)

	switch {
	case err == nil && found.Expired(time.Now()):
		return models.Session{}, apperrors.ErrSessionExpired
	case err == nil:
		return found, nil
	case errors.Is(err, pgx.ErrNoRows):
		return models.Session{}, apperrors.ErrSessionNotFound
	default:
		return models.Session{}, fmt.Errorf("db error: %w", err)
	}
}

const clearSession = `-- name: ClearSession
DELETE FROM sessions
WHERE id = $1
`

func (s *Store) Clear(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.Exec(ctx, clearSession, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions
DELETE FROM sessions
WHERE expires_at < now()
`

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.DB.Exec(ctx, deleteExpiredSessions)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToSession(row pgx.CollectableRow) (models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID, &s.Credential,
		&s.Contact.ID, &s.Contact.Name, &s.Contact.Email, &s.Contact.Organization,
		&s.CreatedAt, &s.ExpiresAt,
	)
	return s, err
}
