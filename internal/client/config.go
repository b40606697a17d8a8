package client

import (
	"context"

	"github.com/fivetwenty-io/sforce/internal/registry"
	"github.com/fivetwenty-io/sforce/internal/resource"
	"github.com/fivetwenty-io/sforce/internal/treesource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// FromConfig creates a client from config: the tree is resolved from
// config.Tree and config.TreeSource, config.Classes are registered next to
// the built-in classes and the transport is built by NewSession. opts are
// applied last and may override any of these.
func FromConfig(ctx context.Context, config *sforce.Config, opts ...Option) (*Client, error) {
	tree, err := treesource.Resolve(ctx, config.Tree, config.TreeSource)
	if err != nil {
		return nil, err
	}

	classes := registry.NewClasses()
	classes.RegisterAll(config.Classes)

	baseURL, err := BaseURL(config.BaseURL, config.RootPath)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithBaseURL(baseURL),
		WithSession(NewSession(config)),
		WithLogger(config.Logger),
		WithRegistry(registry.New(classes, config.DefaultClass)),
	}

	return New(tree, append(base, opts...)...)
}

// BaseURL joins domain and rootPath. An empty domain yields an empty URL.
func BaseURL(domain, rootPath string) (string, error) {
	if domain == "" || rootPath == "" {
		return domain, nil
	}

	return resource.JoinURL(domain, rootPath)
}
