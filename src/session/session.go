// Package session stores opaque session tokens for authenticated users.
// Tokens live in Redis when it is reachable, otherwise in memory.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Session ties a token to an authenticated user.
type Session struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Store issues, resolves and revokes session tokens.
type Store interface {
	Create(ctx context.Context, sess Session) (string, error)
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	Close() error
}

// MemoryStore is the in-process fallback store.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	sess    Session
	expires time.Time
}

// NewMemoryStore creates a MemoryStore whose tokens expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

// Create issues a fresh token for sess.
func (s *MemoryStore) Create(_ context.Context, sess Session) (string, error) {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = memoryEntry{sess: sess, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

// Get resolves a token, dropping it when expired.
func (s *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrNotFound
	}
	if time.Now().After(entry.expires) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return Session{}, ErrNotFound
	}
	return entry.sess, nil
}

// Delete revokes a token. Revoking an unknown token is a no-op.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
