package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerbook/portal/internal/apperrors"
	"github.com/ledgerbook/portal/internal/models"
)

// MemoryStore keeps sessions in process memory. Default store when the
// portal runs without a database.
type MemoryStore struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[uuid.UUID]models.Session),
	}
}

func (s *MemoryStore) Establish(ctx context.Context, credential string, contact models.Contact) (models.Session, error) {
	now := time.Now().Truncate(time.Second)
	session := models.Session{
		ID:         uuid.New(),
		Credential: credential,
		Contact:    contact,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	return session, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()

	switch {
	case !ok:
		return models.Session{}, apperrors.ErrSessionNotFound
	case session.Expired(time.Now()):
		return models.Session{}, apperrors.ErrSessionExpired
	default:
		return session, nil
	}
}

func (s *MemoryStore) Clear(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}

	return removed, nil
}

// MemoryTokenLog is the in-process TokenLog counterpart of MemoryStore.
type MemoryTokenLog struct {
	mu       sync.Mutex
	consumed map[string]time.Time
}

func NewMemoryTokenLog() *MemoryTokenLog {
	return &MemoryTokenLog{consumed: make(map[string]time.Time)}
}

func (l *MemoryTokenLog) MarkConsumed(ctx context.Context, tokenHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.consumed[tokenHash]; ok {
		return apperrors.ErrTokenAlreadyConsumed
	}

	l.consumed[tokenHash] = time.Now()
	return nil
}

func (l *MemoryTokenLog) DeleteConsumedBefore(ctx context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var removed int64
	for hash, consumedAt := range l.consumed {
		if consumedAt.Before(before) {
			delete(l.consumed, hash)
			removed++
		}
	}

	return removed, nil
}
