package salesforce_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/salesforce"
	"github.com/fivetwenty-io/sforce/internal/treesource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiRoot = "/services/data/v29.0/"

// fakeOrg serves the token endpoint and a handful of REST resources of one
// org. Requests are counted per path.
type fakeOrg struct {
	mu        sync.Mutex
	url       string
	tokens    int
	rejectAll bool
	rejected  map[string]bool
	hits      map[string]int
	queries   []string
}

func newFakeOrg(t *testing.T) *fakeOrg {
	t.Helper()

	org := &fakeOrg{rejected: map[string]bool{}, hits: map[string]int{}}

	server := httptest.NewServer(org)
	t.Cleanup(server.Close)

	org.url = server.URL

	return org
}

func (o *fakeOrg) reject(token string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.rejected[token] = true
}

func (o *fakeOrg) count(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.hits[path]
}

func (o *fakeOrg) tokenCalls() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.tokens
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (o *fakeOrg) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if r.URL.Path == constants.TokenPath {
		o.tokens++

		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": fmt.Sprintf("token-%d", o.tokens),
			"token_type":   "Bearer",
			"instance_url": o.url,
			"id":           o.url + "/id/00D50000000IZ3ZEAW/00550000001fg5OAAA",
			"issued_at":    "1278448384422",
		})

		return
	}

	o.hits[r.URL.Path]++

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if o.rejectAll || o.rejected[token] {
		writeJSON(w, http.StatusUnauthorized, []map[string]string{
			{"errorCode": constants.SessionExpiredCode, "message": "Session expired or invalid"},
		})

		return
	}

	switch r.URL.Path {
	case apiRoot + "sobjects/":
		writeJSON(w, http.StatusOK, map[string]any{
			"encoding": "UTF-8",
			"sobjects": []map[string]any{
				{"name": "Account", "urls": map[string]string{
					"sobject":     apiRoot + "sobjects/Account",
					"describe":    apiRoot + "sobjects/Account/describe",
					"rowTemplate": apiRoot + "sobjects/Account/{ID}",
				}},
				{"name": "Contact", "urls": map[string]string{
					"sobject":  apiRoot + "sobjects/Contact",
					"describe": apiRoot + "sobjects/Contact/describe",
				}},
			},
		})
	case apiRoot + "sobjects/Account/001D000000IqhSLIAZ/":
		writeJSON(w, http.StatusOK, map[string]any{"Id": "001D000000IqhSLIAZ", "Name": "Acme"})
	case apiRoot + "sobjects/Account/updated/":
		writeJSON(w, http.StatusOK, map[string]any{"ids": []string{}, "start": r.URL.Query().Get("start")})
	case apiRoot + "limits/":
		writeJSON(w, http.StatusOK, map[string]any{"DailyApiRequests": map[string]int{"Max": 15000, "Remaining": 14998}})
	case apiRoot + "query/":
		o.queries = append(o.queries, r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, map[string]any{"totalSize": 0, "done": true, "records": []any{}})
	case "/id/00D50000000IZ3ZEAW/00550000001fg5OAAA":
		writeJSON(w, http.StatusOK, map[string]any{"user_id": "00550000001fg5OAAA"})
	default:
		writeJSON(w, http.StatusNotFound, []map[string]string{
			{"errorCode": "NOT_FOUND", "message": "The requested resource does not exist"},
		})
	}
}

func (o *fakeOrg) config() *sforce.Config {
	return &sforce.Config{
		TokenURL:      o.url + constants.TokenPath,
		Username:      "user@example.com",
		Password:      "secret",
		SecurityToken: "SECTOKEN",
		ClientID:      "consumer-key",
		ClientSecret:  "consumer-secret",
	}
}

func newAPI(t *testing.T, org *fakeOrg, mutate func(*sforce.Config)) *salesforce.API {
	t.Helper()

	cfg := org.config()
	if mutate != nil {
		mutate(cfg)
	}

	api, err := salesforce.New(context.Background(), cfg)
	require.NoError(t, err)

	return api
}

func TestNew(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, nil)

	assert.Equal(t, org.url+apiRoot, api.BaseURL())
	assert.Equal(t, "token-1", api.Token().AccessToken)
	assert.Equal(t, 1, org.tokenCalls())
	assert.Equal(t, 1, org.count(apiRoot+"sobjects/"))

	paths := api.Registry().Paths()
	assert.Equal(t, "sobjects/Account/", paths["sobjects.Account"])
	assert.Equal(t, "sobjects/Account/describe/", paths["sobjects.Account.describe"])
	assert.Equal(t, "sobjects/Account/{ID}/", paths["sobjects.Account.rowTemplate"])
	assert.Equal(t, "sobjects/Account/updated/?start={start}&end={end}", paths["sobjects.Account.updated"])
	assert.Equal(t, "sobjects/Contact/deleted/?start={start}&end={end}", paths["sobjects.Contact.deleted"])
	assert.NotContains(t, paths, "sobjects.Account.sobject")
	assert.Equal(t, "flexiPage/{id}/", paths["flexiPage"])

	_, err := api.Get(context.Background(), "flexiPage", nil, nil)
	require.ErrorIs(t, err, sforce.ErrMissingParameter)
	assert.Equal(t, org.url+"/id/00D50000000IZ3ZEAW/00550000001fg5OAAA", paths["identity"])
	assert.Len(t, api.SObjects(), 2)
}

func TestWhitelist(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, func(cfg *sforce.Config) {
		cfg.SObjectsWhitelist = []string{"Account"}
	})

	assert.True(t, api.Registry().Has("sobjects.Account"))
	assert.False(t, api.Registry().Has("sobjects.Contact"))
}

func TestSkipDiscovery(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, func(cfg *sforce.Config) {
		cfg.SkipDiscovery = true
	})

	assert.Zero(t, org.count(apiRoot+"sobjects/"))
	assert.False(t, api.Registry().Has("sobjects.Account"))
	assert.True(t, api.Registry().Has("chatter.feeds"))
}

func TestShortNameAlias(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, nil)

	payload, err := api.Get(context.Background(), "Account", sforce.Params{"id": "001D000000IqhSLIAZ"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme", payload.(map[string]any)["Name"])

	payload, err = api.Get(context.Background(), "sobjects.Account", sforce.Params{"id": "001D000000IqhSLIAZ"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme", payload.(map[string]any)["Name"])

	assert.Equal(t, 2, org.count(apiRoot+"sobjects/Account/001D000000IqhSLIAZ/"))

	_, err = api.Get(context.Background(), "Opportunity", nil, nil)
	require.ErrorIs(t, err, sforce.ErrResourceNotFound)
	assert.Contains(t, err.Error(), "Opportunity is not a valid resource")
}

func TestDateRangeSubResource(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, nil)

	payload, err := api.Get(context.Background(), "Account.updated", sforce.Params{
		"start": "2013-01-01T10:00:00Z",
		"end":   "2013-01-02T10:00:00Z",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2013-01-01T10:00:00+00:00", payload.(map[string]any)["start"])
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, nil)

	payload, err := api.Get(context.Background(), "identity", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "00550000001fg5OAAA", payload.(map[string]any)["user_id"])
}

func TestQuery(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, func(cfg *sforce.Config) {
		cfg.SkipDiscovery = true
	})

	payload, err := api.Query(context.Background(), "SELECT Id, Name FROM Account WHERE Name = 'A/B'")
	require.NoError(t, err)
	assert.Equal(t, true, payload.(map[string]any)["done"])

	org.mu.Lock()
	defer org.mu.Unlock()
	assert.Equal(t, []string{"SELECT Id, Name FROM Account WHERE Name = 'A/B'"}, org.queries)
}

func TestReadOnlyResources(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, func(cfg *sforce.Config) {
		cfg.SkipDiscovery = true
	})

	_, err := api.Post(context.Background(), "limits", nil, map[string]any{})
	require.ErrorIs(t, err, sforce.ErrMethodNotAllowed)
	assert.Zero(t, org.count(apiRoot+"limits/"))
}

func TestExpiredSessionIsReplayedOnce(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, func(cfg *sforce.Config) {
		cfg.SkipDiscovery = true
	})

	org.reject("token-1")

	payload, err := api.Get(context.Background(), "limits", nil, nil)
	require.NoError(t, err)
	assert.Contains(t, payload.(map[string]any), "DailyApiRequests")

	assert.Equal(t, 2, org.tokenCalls())
	assert.Equal(t, 2, org.count(apiRoot+"limits/"))
	assert.Equal(t, "token-2", api.Token().AccessToken)
}

func TestExpiredSessionOnReplayIsReturned(t *testing.T) {
	t.Parallel()

	org := newFakeOrg(t)
	api := newAPI(t, org, func(cfg *sforce.Config) {
		cfg.SkipDiscovery = true
	})

	org.mu.Lock()
	org.rejectAll = true
	org.mu.Unlock()

	_, err := api.Get(context.Background(), "limits", nil, nil)
	require.ErrorIs(t, err, sforce.ErrAPI)
	assert.True(t, sforce.HasErrorCode(err, constants.ErrorKey, constants.SessionExpiredCode))

	assert.Equal(t, 2, org.tokenCalls())
	assert.Equal(t, 2, org.count(apiRoot+"limits/"))
}

func TestNewFailsOnBadCredentials(t *testing.T) {
	t.Parallel()

	_, err := salesforce.New(context.Background(), &sforce.Config{TokenURL: "https://login.example.com/token"})
	require.ErrorIs(t, err, sforce.ErrConfiguration)
}

func TestSObjectsTree(t *testing.T) {
	t.Parallel()

	objects := []salesforce.SObject{
		{Name: "Account", URLs: map[string]string{
			"sobject":  "/services/data/v29.0/sobjects/Account",
			"describe": "/services/data/v29.0/sobjects/Account/describe",
			"layouts":  "/services/data/v29.0/layouts/Account",
		}},
		{Name: "Lead", URLs: map[string]string{}},
	}

	tree := salesforce.SObjectsTree(objects, nil)
	require.Contains(t, tree, "Account")
	require.Contains(t, tree, "Lead")

	account := tree["Account"]
	assert.Equal(t, salesforce.ClassSObject, account.Class)
	assert.Equal(t, "describe/", account.Resources["describe"].Path)
	assert.Equal(t, "layouts/", account.Resources["layouts"].Path)
	assert.Equal(t, salesforce.ClassUpdated, account.Resources["updated"].Class)
	assert.Equal(t, salesforce.ClassDeleted, account.Resources["deleted"].Class)
	assert.NotContains(t, account.Resources, "sobject")

	tree = salesforce.SObjectsTree(objects, []string{"Lead"})
	assert.Equal(t, []string{"Lead"}, tree.Names())
}

func TestParseSObjects(t *testing.T) {
	t.Parallel()

	_, err := salesforce.ParseSObjects([]any{})
	require.ErrorIs(t, err, sforce.ErrParse)

	_, err = salesforce.ParseSObjects(map[string]any{"encoding": "UTF-8"})
	require.ErrorIs(t, err, sforce.ErrParse)

	objects, err := salesforce.ParseSObjects(map[string]any{"sobjects": []any{
		map[string]any{"name": "Account", "urls": map[string]any{"describe": "/d"}},
		map[string]any{"label": "no name"},
	}})
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "/d", objects[0].URLs["describe"])
}

func TestAlias(t *testing.T) {
	t.Parallel()

	registered := map[string]bool{"sobjects.Account": true, "Account": true}
	has := func(name string) bool { return registered[name] }

	assert.Equal(t, "sobjects.Account", salesforce.Alias("Account", has))
	assert.Equal(t, "sobjects.Account", salesforce.Alias("sobjects.Account", has))
	assert.Equal(t, "limits", salesforce.Alias("limits", has))
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	tree, err := treesource.Load(context.Background(), salesforce.CatalogSource)
	require.NoError(t, err)

	assert.Equal(t, salesforce.ClassInstance, tree["flexiPage"].Class)
	assert.Equal(t, "flexiPage/{id}/", tree["flexiPage"].Path)
	assert.Equal(t, salesforce.ClassQueryAll, tree["queryAll"].Class)
	assert.Contains(t, tree["chatter"].Resources, "feeds")
	assert.Contains(t, tree["appMenu"].Resources, "SalesForce1")
	assert.Contains(t, tree, "identity")
}

func TestRootPathAndTokenURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "services/data/v29.0/", salesforce.RootPath(""))
	assert.Equal(t, "services/data/v59.0/", salesforce.RootPath("59.0"))
	assert.Equal(t, "https://login.salesforce.com/services/oauth2/token", salesforce.TokenURL(""))
	assert.Equal(t, "https://test.salesforce.com/services/oauth2/token", salesforce.TokenURL("https://test.salesforce.com"))
}
