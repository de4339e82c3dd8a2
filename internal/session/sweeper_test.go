package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerbook/portal/internal/logger"
	"github.com/ledgerbook/portal/internal/models"
)

func TestSweeper(t *testing.T) {
	t.Parallel()

	t.Run("sweep removes expired sessions and stale tokens", func(t *testing.T) {
		store := NewMemoryStore(time.Nanosecond)
		tokens := NewMemoryTokenLog()

		_, err := store.Establish(t.Context(), "cred-1", models.Contact{Name: "Jane Doe"})
		require.NoError(t, err)
		require.NoError(t, tokens.MarkConsumed(t.Context(), HashToken("tok_abc123")))

		sweeper := NewSweeper(store, tokens, logger.NewNoOpLogger())
		sweeper.retention = -time.Hour // treat everything as stale
		sweeper.sweep(t.Context())

		removed, err := store.DeleteExpired(t.Context())
		require.NoError(t, err)
		require.Zero(t, removed, "sweep should have removed expired sessions already")

		// Token record swept, marking again succeeds
		require.NoError(t, tokens.MarkConsumed(t.Context(), HashToken("tok_abc123")))
	})

	t.Run("sweep without token log", func(t *testing.T) {
		sweeper := NewSweeper(NewMemoryStore(time.Hour), nil, logger.NewNoOpLogger())

		require.NotPanics(t, func() { sweeper.sweep(t.Context()) })
	})

	t.Run("run stops on context cancel", func(t *testing.T) {
		sweeper := NewSweeper(NewMemoryStore(time.Hour), NewMemoryTokenLog(), logger.NewNoOpLogger())
		sweeper.interval = time.Millisecond

		ctx, cancel := context.WithCancel(t.Context())
		stopped := sweeper.Run(ctx)

		time.Sleep(5 * time.Millisecond)
		cancel()

		select {
		case <-stopped:
		case <-time.After(time.Second):
			t.Fatal("sweeper should stop after context cancel")
		}
	})
}
