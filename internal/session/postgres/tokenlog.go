package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerbook/portal/internal/apperrors"
)

// TokenLog persists consumed magic-link tokens, keyed by token hash.
type TokenLog struct {
	DB DBTX
}

const markConsumed = `-- name: MarkConsumed
INSERT INTO consumed_login_tokens (token_hash, consumed_at)
VALUES ($1, $2)
`

// MarkConsumed records the token hash
// Must return apperrors.ErrTokenAlreadyConsumed on repeated insert
func (l *TokenLog) MarkConsumed(ctx context.Context, tokenHash string) error {
	_, err := l.DB.Exec(ctx, markConsumed, tokenHash, time.Now())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperrors.ErrTokenAlreadyConsumed
		}

		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const deleteConsumedBefore = `-- name: DeleteConsumedBefore
DELETE FROM consumed_login_tokens
WHERE consumed_at < $1
`

func (l *TokenLog) DeleteConsumedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := l.DB.Exec(ctx, deleteConsumedBefore, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}
