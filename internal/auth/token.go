// Package auth obtains and refreshes OAuth2 tokens and replays calls that
// failed on an expired session.
package auth

import (
	"sync"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// TokenStore holds the current token. It is safe for concurrent use.
type TokenStore struct {
	mu    sync.RWMutex
	token *sforce.Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token, or nil.
func (s *TokenStore) Get() *sforce.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the current token.
func (s *TokenStore) Set(token *sforce.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear drops the current token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}
