package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/sforce/internal/auth"
	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/logging"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetch = errors.New("fetch failed")

func newTokenServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/oauth2/token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.Form.Get("grant_type"))
		assert.Equal(t, "user@example.com", r.Form.Get("username"))
		assert.Equal(t, "secretSECTOKEN", r.Form.Get("password"))
		assert.Equal(t, "consumer-key", r.Form.Get("client_id"))
		assert.Equal(t, "consumer-secret", r.Form.Get("client_secret"))

		n := calls.Add(1)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "token-" + string(rune('0'+n)),
			"token_type":   "Bearer",
			"signature":    "c2lnbmF0dXJl",
			"issued_at":    "1278448384422",
			"instance_url": "https://footest.salesforce.com",
			"id":           "https://login.salesforce.com/id/00D50000000IZ3ZEAW/00550000001fg5OAAA",
		})
	}))
}

func passwordConfig(tokenURL string) *auth.PasswordConfig {
	return &auth.PasswordConfig{
		TokenURL:      tokenURL,
		Username:      "user@example.com",
		Password:      "secret",
		SecurityToken: "SECTOKEN",
		ClientID:      "consumer-key",
		ClientSecret:  "consumer-secret",
	}
}

func TestPasswordFetcher_FetchToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := newTokenServer(t, &calls)
	defer server.Close()

	fetcher, err := auth.NewPasswordFetcher(passwordConfig(server.URL + constants.TokenPath))
	require.NoError(t, err)

	token, err := fetcher.FetchToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-1", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, "https://footest.salesforce.com", token.InstanceURL)
	assert.Equal(t, "https://login.salesforce.com/id/00D50000000IZ3ZEAW/00550000001fg5OAAA", token.ID)
	assert.Equal(t, "1278448384422", token.IssuedAt)
	assert.Equal(t, "c2lnbmF0dXJl", token.Signature)
	assert.True(t, token.Valid())
}

func TestPasswordFetcher_Errors(t *testing.T) {
	t.Parallel()

	t.Run("requires credentials", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewPasswordFetcher(&auth.PasswordConfig{TokenURL: "https://login.salesforce.com"})
		require.ErrorIs(t, err, constants.ErrNoCredentials)

		_, err = auth.NewPasswordFetcher(&auth.PasswordConfig{})
		require.ErrorIs(t, err, constants.ErrNoTokenURL)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"authentication failure"}`))
		}))
		defer server.Close()

		fetcher, err := auth.NewPasswordFetcher(passwordConfig(server.URL))
		require.NoError(t, err)

		_, err = fetcher.FetchToken(context.Background())
		require.ErrorIs(t, err, sforce.ErrAuthentication)
		assert.Contains(t, err.Error(), "authentication failure")
	})

	t.Run("missing instance url", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"Bearer"}`))
		}))
		defer server.Close()

		fetcher, err := auth.NewPasswordFetcher(passwordConfig(server.URL))
		require.NoError(t, err)

		_, err = fetcher.FetchToken(context.Background())
		require.ErrorIs(t, err, constants.ErrNoInstanceURL)
	})
}

type stubFetcher struct {
	calls  int
	tokens []*sforce.Token
	err    error
}

func (f *stubFetcher) FetchToken(context.Context) (*sforce.Token, error) {
	if f.err != nil {
		return nil, f.err
	}

	token := f.tokens[f.calls%len(f.tokens)]
	f.calls++

	return token, nil
}

func TestManager_GetToken(t *testing.T) {
	t.Parallel()

	t.Run("fetches lazily and caches", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{tokens: []*sforce.Token{{AccessToken: "first", InstanceURL: "https://a"}}}
		manager := auth.NewManager(fetcher, logging.Discard())

		assert.Nil(t, manager.Token())

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first", token)

		_, err = manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fetcher.calls)
	})

	t.Run("refreshes expired token", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{tokens: []*sforce.Token{{AccessToken: "fresh"}}}
		manager := auth.NewManager(fetcher, nil)
		manager.SetToken("stale", time.Now().Add(-time.Hour))

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
	})

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewManager(&stubFetcher{err: errFetch}, nil)

		token, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, errFetch)
		assert.Empty(t, token)
	})

	t.Run("no fetcher", func(t *testing.T) {
		t.Parallel()

		err := auth.NewManager(nil, nil).RefreshToken(context.Background())
		require.ErrorIs(t, err, auth.ErrNoTokenFetcher)
	})
}

func TestManager_SetToken(t *testing.T) {
	t.Parallel()

	manager := auth.NewManager(&stubFetcher{err: errFetch}, nil)

	expiresAt := time.Now().Add(1 * time.Hour)
	manager.SetToken("manual-token", expiresAt)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual-token", token)
	assert.Equal(t, expiresAt.Unix(), manager.Token().ExpiresAt.Unix())
}

func TestManager_RefreshToken(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	server := newTokenServer(t, &calls)
	defer server.Close()

	fetcher, err := auth.NewPasswordFetcher(passwordConfig(server.URL + constants.TokenPath))
	require.NoError(t, err)

	manager := auth.NewManager(fetcher, logging.Discard())

	var seen []string

	manager.OnRefresh(func(token *sforce.Token) {
		seen = append(seen, token.AccessToken)
	})

	manager.SetToken("current-token", time.Now().Add(1*time.Hour))

	require.NoError(t, manager.RefreshToken(context.Background()))
	require.NoError(t, manager.RefreshToken(context.Background()))

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
	assert.Equal(t, []string{"token-1", "token-2"}, seen)
	assert.Equal(t, int32(2), calls.Load())
}
