package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

// MemoryTokenStore is a single-process TokenStore for tests.
// It follows the same retention rule as RedisTokenStore.
type MemoryTokenStore struct {
	mu        sync.Mutex
	retention time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
}

type memoryEntry struct {
	record   domain.EphemeralToken
	deadline time.Time
}

var _ repository.TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore(retention time.Duration) *MemoryTokenStore {
	return &MemoryTokenStore{
		retention: retention,
		now:       time.Now,
		entries:   make(map[string]memoryEntry),
	}
}

// SetClock replaces the time source used for key eviction.
func (s *MemoryTokenStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryTokenStore) Save(_ context.Context, token domain.EphemeralToken) error {
	key, err := tokenKey(token.Kind, token.Token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{record: token, deadline: token.ExpiresAt.Add(s.retention)}
	return nil
}

func (s *MemoryTokenStore) Consume(_ context.Context, kind domain.TokenKind, token string) (*domain.EphemeralToken, error) {
	key, err := tokenKey(kind, token)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	delete(s.entries, key)
	if !s.now().Before(entry.deadline) {
		return nil, nil
	}
	record := entry.record
	return &record, nil
}

func (s *MemoryTokenStore) RevokeUser(_ context.Context, kind domain.TokenKind, userID int64) (int, error) {
	if _, err := keyPrefix(kind); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if entry.record.Kind == kind && entry.record.UserID == userID {
			delete(s.entries, key)
			if s.now().Before(entry.deadline) {
				removed++
			}
		}
	}
	return removed, nil
}

// Outstanding counts live records of kind for userID.
func (s *MemoryTokenStore) Outstanding(kind domain.TokenKind, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.entries {
		if entry.record.Kind == kind && entry.record.UserID == userID && s.now().Before(entry.deadline) {
			n++
		}
	}
	return n
}

// Tokens returns the live token strings of kind for userID.
func (s *MemoryTokenStore) Tokens(kind domain.TokenKind, userID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, entry := range s.entries {
		if entry.record.Kind == kind && entry.record.UserID == userID && s.now().Before(entry.deadline) {
			out = append(out, entry.record.Token)
		}
	}
	return out
}
