package commands

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/fivetwenty-io/sforce/internal/auth"
	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/logging"
	"github.com/fivetwenty-io/sforce/internal/salesforce"
	"github.com/fivetwenty-io/sforce/internal/store"
	"github.com/fivetwenty-io/sforce/internal/treesource"
	"github.com/fivetwenty-io/sforce/pkg/sfclient"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// Contact sync resource and class, registered next to the catalog.
const (
	contactSyncResource = "contact_sync"
	contactSyncClass    = "sf_contact"
)

var metrics = sforce.NewMetricsCollector()

func newLogger() *logging.Logger {
	level := "warn"
	if viper.GetBool("verbose") {
		level = "debug"
	}

	return logging.New("sforce", level, os.Stderr)
}

// clientConfig maps the CLI configuration onto a client configuration.
func clientConfig(config *Config) (*sforce.Config, error) {
	tree, err := treesource.FromViper(viper.GetViper(), "resources")
	if err != nil {
		return nil, err
	}

	return &sforce.Config{
		BaseURL:           config.BaseURL,
		RootPath:          config.RootPath,
		Tree:              tree,
		TreeSource:        config.Tree,
		TokenURL:          salesforce.TokenURL(config.AuthDomain),
		Username:          config.Username,
		SecurityToken:     config.SecurityToken,
		ClientID:          config.ClientID,
		ClientSecret:      config.ClientSecret,
		APIVersion:        config.APIVersion,
		SObjectsWhitelist: config.Whitelist,
		Logger:            newLogger(),
		Debug:             viper.GetBool("verbose"),
		UserAgent:         "sforce-cli",
		Headers:           config.Headers,
		Metrics:           metrics,
	}, nil
}

// newClient returns a generic client when base_url is configured and a
// Salesforce client otherwise.
func newClient(ctx context.Context) (sforce.Client, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	cfg, err := clientConfig(config)
	if err != nil {
		return nil, err
	}

	if config.BaseURL != "" {
		return sfclient.NewGeneric(ctx, cfg)
	}

	return newSalesforce(ctx, config, cfg, true)
}

// newSalesforceClient is newClient for commands that only make sense against
// an org.
func newSalesforceClient(ctx context.Context) (*salesforce.API, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if config.BaseURL != "" {
		return nil, constants.ErrNotSalesforce
	}

	cfg, err := clientConfig(config)
	if err != nil {
		return nil, err
	}

	return newSalesforce(ctx, config, cfg, true)
}

// newSalesforce authenticates, reusing the stored token when useStored is
// set, and persists every token fetched afterwards.
func newSalesforce(ctx context.Context, config *Config, cfg *sforce.Config, useStored bool) (*salesforce.API, error) {
	fetcher := &cachedFetcher{next: passwordFetcher(config, cfg.TokenURL)}
	if useStored {
		fetcher.cached = config.Token
	}

	cfg.TokenFetcher = fetcher
	cfg.Classes = contactSyncClasses()
	cfg.Tree = cfg.Tree.Merge(sforce.Tree{
		contactSyncResource: {Path: "sobjects/Contact/", Class: contactSyncClass},
	})

	if cfg.TreeSource == "" {
		cfg.TreeSource = salesforce.CatalogSource
	}

	api, err := salesforce.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	persister := &tokenPersister{}
	if fetcher.fetched {
		persister.persist(api.Token())
	}

	api.Manager().OnRefresh(persister.persist)

	return api, nil
}

func contactSyncClasses() map[string]sforce.Class {
	class := salesforce.Resource()
	class.Addressing = sforce.AddressModel
	class.Methods = []string{http.MethodGet, http.MethodPost, http.MethodPatch}
	class.Model = &sforce.ModelSpec{
		DistantID: "remote_id",
		Fields:    store.ContactFields(),
	}

	return map[string]sforce.Class{contactSyncClass: class}
}

// cachedFetcher hands out a stored token once, then fetches fresh ones.
type cachedFetcher struct {
	mu      sync.Mutex
	cached  *sforce.Token
	fetched bool
	next    func() (sforce.TokenFetcher, error)
}

func (f *cachedFetcher) FetchToken(ctx context.Context) (*sforce.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached.Valid() && f.cached.InstanceURL != "" {
		token := f.cached
		f.cached = nil

		return token, nil
	}

	f.cached = nil

	fetcher, err := f.next()
	if err != nil {
		return nil, err
	}

	f.fetched = true

	return fetcher.FetchToken(ctx)
}

func passwordFetcher(config *Config, tokenURL string) func() (sforce.TokenFetcher, error) {
	return func() (sforce.TokenFetcher, error) {
		password, err := readPassword()
		if err != nil {
			return nil, err
		}

		return auth.NewPasswordFetcher(&auth.PasswordConfig{
			TokenURL:      tokenURL,
			Username:      config.Username,
			Password:      password,
			SecurityToken: config.SecurityToken,
			ClientID:      config.ClientID,
			ClientSecret:  config.ClientSecret,
		})
	}
}

// readPassword reads SFORCE_PASSWORD, or prompts when stdin is a terminal.
func readPassword() (string, error) {
	password := viper.GetString("password")
	if password != "" {
		return password, nil
	}

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", constants.ErrNoCredentials
	}

	fmt.Fprint(os.Stderr, "Password: ")

	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(bytePassword), nil
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)

	value, _ := bufio.NewReader(os.Stdin).ReadString('\n')

	return strings.TrimSpace(value)
}

// tokenPersister writes refreshed tokens back to the config file.
type tokenPersister struct {
	mu sync.Mutex
}

func (p *tokenPersister) persist(token *sforce.Token) {
	p.mu.Lock()
	defer p.mu.Unlock()

	config, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not persist token: %v\n", err)

		return
	}

	config.Token = token

	err = saveConfig(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not persist token: %v\n", err)
	}
}
