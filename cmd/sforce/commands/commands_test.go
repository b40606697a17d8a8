package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetch = errors.New("fetch failed")

type staticFetcher struct {
	token *sforce.Token
	calls int
}

func (f *staticFetcher) FetchToken(context.Context) (*sforce.Token, error) {
	f.calls++

	return f.token, nil
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	params, err := parseParams([]string{"id=001", "start=2024-01-01T00:00:00", "q=a=b"})
	require.NoError(t, err)
	assert.Equal(t, sforce.Params{"id": "001", "start": "2024-01-01T00:00:00", "q": "a=b"}, params)

	_, err = parseParams([]string{"id"})
	require.ErrorIs(t, err, constants.ErrInvalidParameter)

	_, err = parseParams([]string{"=001"})
	require.ErrorIs(t, err, constants.ErrInvalidParameter)
}

func TestParseData(t *testing.T) {
	t.Parallel()

	assert.Nil(t, parseData(""))
	assert.Equal(t, map[string]any{"Name": "Acme"}, parseData(`{"Name":"Acme"}`))
	assert.Equal(t, "plain text", parseData("plain text"))
}

func TestCell(t *testing.T) {
	t.Parallel()

	assert.Empty(t, cell(nil))
	assert.Equal(t, "abc", cell("abc"))
	assert.Equal(t, "true", cell(true))
	assert.Equal(t, "1.5", cell(1.5))
	assert.Equal(t, `{"a":[1,2]}`, cell(map[string]any{"a": []any{1, 2}}))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.Empty(t, redact(""))
	assert.Equal(t, "********", redact("short"))
	assert.Equal(t, "00D000000000001...", redact("00D000000000001!AQ0AQ.long.session.id"))
}

func TestFilterResources(t *testing.T) {
	t.Parallel()

	infos := []sforce.ResourceInfo{{Name: "Account"}, {Name: "Account.updated"}, {Name: "limits"}}

	assert.Len(t, filterResources(infos, ""), 3)
	assert.Len(t, filterResources(infos, "account"), 2)
	assert.Empty(t, filterResources(infos, "chatter"))
}

func TestDestination(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file:./tree.yml", destination("./tree.yml"))
	assert.Equal(t, "file:/tmp/tree.yml", destination("file:/tmp/tree.yml"))
	assert.Equal(t, "nats://127.0.0.1:4222/trees/sf", destination("nats://127.0.0.1:4222/trees/sf"))
}

func TestCachedFetcher(t *testing.T) {
	t.Parallel()

	t.Run("hands out the stored token once", func(t *testing.T) {
		t.Parallel()

		next := &staticFetcher{token: &sforce.Token{AccessToken: "fresh", InstanceURL: "https://na1.example.com"}}
		fetcher := &cachedFetcher{
			cached: &sforce.Token{AccessToken: "stored", InstanceURL: "https://na1.example.com"},
			next:   func() (sforce.TokenFetcher, error) { return next, nil },
		}

		token, err := fetcher.FetchToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "stored", token.AccessToken)
		assert.False(t, fetcher.fetched)

		token, err = fetcher.FetchToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", token.AccessToken)
		assert.True(t, fetcher.fetched)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("ignores a token without instance url", func(t *testing.T) {
		t.Parallel()

		next := &staticFetcher{token: &sforce.Token{AccessToken: "fresh"}}
		fetcher := &cachedFetcher{
			cached: &sforce.Token{AccessToken: "stored"},
			next:   func() (sforce.TokenFetcher, error) { return next, nil },
		}

		token, err := fetcher.FetchToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", token.AccessToken)
	})

	t.Run("propagates credential errors", func(t *testing.T) {
		t.Parallel()

		fetcher := &cachedFetcher{next: func() (sforce.TokenFetcher, error) { return nil, errFetch }}

		_, err := fetcher.FetchToken(context.Background())
		require.ErrorIs(t, err, errFetch)
		assert.False(t, fetcher.fetched)
	})
}
