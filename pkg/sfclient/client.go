package sfclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/sforce/internal/client"
	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/modelsync"
	"github.com/fivetwenty-io/sforce/internal/salesforce"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// New authenticates against Salesforce and returns a client for the org. The
// built-in catalog is used unless config names another tree.
func New(ctx context.Context, config *sforce.Config) (sforce.SalesforceClient, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", sforce.ErrConfiguration)
	}

	api, err := salesforce.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create salesforce client: %w", err)
	}

	return api, nil
}

// NewWithPassword creates a Salesforce client for a production org with the
// OAuth2 password grant.
func NewWithPassword(ctx context.Context, username, password, securityToken, clientID, clientSecret string) (sforce.SalesforceClient, error) {
	return New(ctx, &sforce.Config{
		Username:      username,
		Password:      password,
		SecurityToken: securityToken,
		ClientID:      clientID,
		ClientSecret:  clientSecret,
	})
}

// NewGeneric returns an unauthenticated client for any REST API described by
// a resource tree.
func NewGeneric(ctx context.Context, config *sforce.Config) (sforce.ModelClient, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", sforce.ErrConfiguration)
	}

	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: %w", sforce.ErrConfiguration, constants.ErrNoBaseURL)
	}

	cfg := *config
	cfg.BaseURL = normalizeEndpoint(cfg.BaseURL)

	cli, err := client.FromConfig(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return modelsync.NewClient(cli), nil
}

// NewWithTree returns a generic client for tree rooted at baseURL.
func NewWithTree(ctx context.Context, baseURL string, tree sforce.Tree) (sforce.ModelClient, error) {
	return NewGeneric(ctx, &sforce.Config{BaseURL: baseURL, Tree: tree})
}

// normalizeEndpoint defaults the scheme to https and ends the URL with a
// slash so root paths are appended rather than substituted.
func normalizeEndpoint(endpoint string) string {
	if endpoint == "" {
		return ""
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return strings.TrimSuffix(endpoint, "/") + "/"
}
