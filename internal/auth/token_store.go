package auth

import (
	"sync"
	"time"
)

type tokenRecord struct {
	userID    string
	expiresAt time.Time
}

// tokenStore — потокобезопасное in-memory хранилище сессионных токенов.
type tokenStore struct {
	mu     sync.RWMutex
	tokens map[string]tokenRecord
}

func newTokenStore() *tokenStore {
	return &tokenStore{tokens: make(map[string]tokenRecord)}
}

func (s *tokenStore) put(token, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenRecord{userID: userID, expiresAt: expiresAt}
}

func (s *tokenStore) lookup(token string, now time.Time) (string, bool) {
	s.mu.RLock()
	record, ok := s.tokens[token]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if now.After(record.expiresAt) {
		s.revoke(token)
		return "", false
	}
	return record.userID, true
}

func (s *tokenStore) revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
