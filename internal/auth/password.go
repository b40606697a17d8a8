package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"golang.org/x/oauth2"
)

// PasswordConfig holds the OAuth2 password grant parameters.
type PasswordConfig struct {
	TokenURL      string
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
	// HTTPClient is used for the token request when set.
	HTTPClient *http.Client
}

// PasswordFetcher implements sforce.TokenFetcher with the OAuth2 resource
// owner password grant. The security token is appended to the password the
// way Salesforce expects it.
type PasswordFetcher struct {
	config *PasswordConfig
	oauth  *oauth2.Config
}

var _ sforce.TokenFetcher = (*PasswordFetcher)(nil)

// NewPasswordFetcher validates config and creates a fetcher.
func NewPasswordFetcher(config *PasswordConfig) (*PasswordFetcher, error) {
	if config.TokenURL == "" {
		return nil, constants.ErrNoTokenURL
	}

	if config.Username == "" || config.Password == "" || config.ClientID == "" || config.ClientSecret == "" {
		return nil, constants.ErrNoCredentials
	}

	return &PasswordFetcher{
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  config.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

// FetchToken implements sforce.TokenFetcher.
func (f *PasswordFetcher) FetchToken(ctx context.Context) (*sforce.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.TokenTimeout)
	defer cancel()

	if f.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.config.HTTPClient)
	}

	tok, err := f.oauth.PasswordCredentialsToken(ctx, f.config.Username, f.config.Password+f.config.SecurityToken)
	if err != nil {
		retrieveErr := &oauth2.RetrieveError{}
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: token endpoint returned %d: %s",
				sforce.ErrAuthentication, retrieveErr.Response.StatusCode, string(retrieveErr.Body))
		}

		return nil, fmt.Errorf("%w: %w", sforce.ErrAuthentication, err)
	}

	token := &sforce.Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		InstanceURL: extra(tok, "instance_url"),
		ID:          extra(tok, "id"),
		IssuedAt:    extra(tok, "issued_at"),
		Signature:   extra(tok, "signature"),
		ExpiresAt:   tok.Expiry,
	}

	if token.InstanceURL == "" {
		return nil, fmt.Errorf("%w: %w", sforce.ErrAuthentication, constants.ErrNoInstanceURL)
	}

	return token, nil
}

func extra(tok *oauth2.Token, key string) string {
	value, _ := tok.Extra(key).(string)

	return value
}
