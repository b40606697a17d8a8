package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenFetcher = errors.New("no token fetcher configured")
)

// TokenManager manages access tokens.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// RefreshFunc is called with every freshly fetched token.
type RefreshFunc func(token *sforce.Token)

// Manager implements TokenManager on top of a sforce.TokenFetcher.
type Manager struct {
	fetcher   sforce.TokenFetcher
	store     *TokenStore
	mu        sync.Mutex
	onRefresh []RefreshFunc
	logger    sforce.Logger
}

var _ TokenManager = (*Manager)(nil)

// NewManager creates a token manager. Nothing is fetched until the first
// GetToken or RefreshToken.
func NewManager(fetcher sforce.TokenFetcher, logger sforce.Logger) *Manager {
	return &Manager{
		fetcher: fetcher,
		store:   NewTokenStore(),
		logger:  logger,
	}
}

// OnRefresh registers fn to run after every successful fetch.
func (m *Manager) OnRefresh(fn RefreshFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onRefresh = append(m.onRefresh, fn)
}

// Token returns the current token, or nil before the first fetch.
func (m *Manager) Token() *sforce.Token {
	return m.store.Get()
}

// GetToken returns a valid access token, fetching one if necessary.
func (m *Manager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken fetches a new token unconditionally.
func (m *Manager) RefreshToken(ctx context.Context) error {
	if m.fetcher == nil {
		return ErrNoTokenFetcher
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.fetcher.FetchToken(ctx)
	if err != nil {
		return fmt.Errorf("fetching token: %w", err)
	}

	m.store.Set(token)

	if m.logger != nil {
		m.logger.Info("Fetched token", map[string]interface{}{
			"instance_url": token.InstanceURL,
			"issued_at":    token.IssuedAt,
		})
	}

	for _, fn := range m.onRefresh {
		fn(token)
	}

	return nil
}

// SetToken installs a token obtained elsewhere, e.g. from the CLI config.
func (m *Manager) SetToken(token string, expiresAt time.Time) {
	current := m.store.Get()

	next := &sforce.Token{}
	if current != nil {
		*next = *current
	}

	next.AccessToken = token
	next.ExpiresAt = expiresAt

	m.store.Set(next)
}

// SetFullToken installs a complete token and notifies the refresh listeners.
func (m *Manager) SetFullToken(token *sforce.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Set(token)

	for _, fn := range m.onRefresh {
		fn(token)
	}
}
