package salesforce

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/sforce/internal/auth"
	"github.com/fivetwenty-io/sforce/internal/client"
	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/logging"
	"github.com/fivetwenty-io/sforce/internal/modelsync"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// API is an authenticated Salesforce client. The instance URL and identity
// path follow the current token.
type API struct {
	*modelsync.Client

	manager  *auth.Manager
	rootPath string
	objects  sforce.Tree
}

var _ sforce.SalesforceClient = (*API)(nil)

// RootPath returns the REST root of an API version.
func RootPath(version string) string {
	if version == "" {
		version = constants.DefaultAPIVersion
	}

	return fmt.Sprintf("services/data/v%s/", version)
}

// TokenURL returns the OAuth2 token endpoint of an auth domain.
func TokenURL(authDomain string) string {
	if authDomain == "" {
		authDomain = constants.DefaultAuthDomain
	}

	return authDomain + constants.TokenPath
}

// New authenticates against config.TokenURL, builds the resource tree and,
// unless config.SkipDiscovery is set, registers the sobjects of the org.
func New(ctx context.Context, config *sforce.Config) (*API, error) {
	cfg := withDefaults(config)

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sforce.ErrConfiguration, err)
	}

	manager := auth.NewManager(fetcher, cfg.Logger)

	cli, err := client.FromConfig(ctx, cfg,
		client.WithSession(auth.Authorize(client.NewSession(cfg), manager)),
		client.WithAlias(Alias),
		client.WithMiddleware(auth.ReplayOnExpiredSession(manager, constants.ErrorKey, constants.SessionExpiredCode, cfg.Logger)),
	)
	if err != nil {
		return nil, err
	}

	api := &API{
		Client:   modelsync.NewClient(cli),
		manager:  manager,
		rootPath: cfg.RootPath,
	}

	manager.OnRefresh(api.applyToken)

	err = manager.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.SkipDiscovery {
		return api, nil
	}

	api.objects, err = Discover(ctx, cli, cfg.SObjectsWhitelist)
	if err != nil {
		return nil, err
	}

	return api, nil
}

func withDefaults(config *sforce.Config) *sforce.Config {
	cfg := *config

	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	if cfg.RootPath == "" {
		cfg.RootPath = RootPath(cfg.APIVersion)
	}

	if cfg.TokenURL == "" {
		cfg.TokenURL = TokenURL("")
	}

	if cfg.Tree == nil && cfg.TreeSource == "" {
		cfg.TreeSource = CatalogSource
	}

	if cfg.DefaultClass == "" {
		cfg.DefaultClass = ClassSalesforce
	}

	classes := Classes()
	for key, class := range config.Classes {
		classes[key] = class
	}

	cfg.Classes = classes

	return &cfg
}

func newFetcher(cfg *sforce.Config) (sforce.TokenFetcher, error) {
	if cfg.TokenFetcher != nil {
		return cfg.TokenFetcher, nil
	}

	return auth.NewPasswordFetcher(&auth.PasswordConfig{
		TokenURL:      cfg.TokenURL,
		Username:      cfg.Username,
		Password:      cfg.Password,
		SecurityToken: cfg.SecurityToken,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
	})
}

// applyToken points the client at the instance of token.
func (a *API) applyToken(token *sforce.Token) {
	baseURL, err := client.BaseURL(token.InstanceURL, a.rootPath)
	if err != nil {
		a.Logger().Error("Ignoring invalid instance URL", map[string]interface{}{
			"instance_url": token.InstanceURL,
			"error":        err.Error(),
		})

		return
	}

	a.SetBaseURL(baseURL)

	if token.ID != "" {
		a.Registry().SetPath(constants.IdentityResource, token.ID)
	}
}

// Manager returns the token manager.
func (a *API) Manager() *auth.Manager {
	return a.manager
}

// Token returns the current token.
func (a *API) Token() *sforce.Token {
	return a.manager.Token()
}

// SObjects returns the tree registered by discovery.
func (a *API) SObjects() sforce.Tree {
	return a.objects
}

// Query runs a SOQL query.
func (a *API) Query(ctx context.Context, soql string) (sforce.Payload, error) {
	return a.Get(ctx, "query", sforce.Params{"q": soql}, nil)
}

// QueryAll runs a SOQL query including deleted and archived records.
func (a *API) QueryAll(ctx context.Context, soql string) (sforce.Payload, error) {
	return a.Get(ctx, "queryAll", sforce.Params{"q": soql}, nil)
}

// Search runs a SOSL search.
func (a *API) Search(ctx context.Context, sosl string) (sforce.Payload, error) {
	return a.Get(ctx, "search", sforce.Params{"q": sosl}, nil)
}
