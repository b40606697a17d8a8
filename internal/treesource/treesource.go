// Package treesource loads declarative resource trees from named external
// sources: built-in catalogs, files, NATS JetStream key-value buckets and
// viper configuration.
package treesource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"gopkg.in/yaml.v3"
)

// Source schemes.
const (
	SchemeBuiltin = "builtin"
	SchemeFile    = "file"
	SchemeNATS    = "nats"
)

// Static errors for err113 compliance.
var (
	ErrInvalidReference = errors.New("invalid tree source reference")
	ErrReadOnlySource   = errors.New("tree source is read only")
)

// BuiltinFunc produces a built-in tree.
type BuiltinFunc func() (sforce.Tree, error)

var (
	builtinsMu sync.RWMutex
	builtins   = map[string]BuiltinFunc{}
)

// RegisterBuiltin makes fn available as "builtin:<name>".
func RegisterBuiltin(name string, fn BuiltinFunc) {
	builtinsMu.Lock()
	defer builtinsMu.Unlock()

	builtins[name] = fn
}

// Builtins returns the registered built-in names.
func Builtins() []string {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()

	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Load resolves ref and returns its tree.
func Load(ctx context.Context, ref string) (sforce.Tree, error) {
	scheme, rest, err := split(ref)
	if err != nil {
		return nil, err
	}

	switch scheme {
	case SchemeBuiltin:
		builtinsMu.RLock()
		fn, ok := builtins[rest]
		builtinsMu.RUnlock()

		if !ok {
			return nil, fmt.Errorf("%w: no built-in tree named %q", sforce.ErrTreeSourceUnknown, rest)
		}

		return fn()

	case SchemeFile:
		return LoadFile(rest)

	case SchemeNATS:
		return LoadNATS(ctx, ref)

	default:
		return nil, fmt.Errorf("%w: %s", sforce.ErrTreeSourceUnknown, ref)
	}
}

// Store writes tree to ref. Built-in sources cannot be written.
func Store(ctx context.Context, ref string, tree sforce.Tree) error {
	scheme, rest, err := split(ref)
	if err != nil {
		return err
	}

	switch scheme {
	case SchemeFile:
		return StoreFile(rest, tree)
	case SchemeNATS:
		return StoreNATS(ctx, ref, tree)
	case SchemeBuiltin:
		return fmt.Errorf("%w: %s", ErrReadOnlySource, ref)
	default:
		return fmt.Errorf("%w: %s", sforce.ErrTreeSourceUnknown, ref)
	}
}

// Resolve merges the tree loaded from ref under the inline tree. It returns
// a nil tree when neither is given.
func Resolve(ctx context.Context, inline sforce.Tree, ref string) (sforce.Tree, error) {
	if ref == "" {
		return inline, nil
	}

	loaded, err := Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("loading resource tree %s: %w", ref, err)
	}

	return loaded.Merge(inline), nil
}

func split(ref string) (string, string, error) {
	if strings.HasPrefix(ref, SchemeNATS+"://") {
		return SchemeNATS, ref, nil
	}

	scheme, rest, ok := strings.Cut(ref, ":")
	if !ok || rest == "" {
		return "", "", fmt.Errorf("%w: %q, expected <scheme>:<location>", ErrInvalidReference, ref)
	}

	return scheme, rest, nil
}

// Decode parses a YAML or JSON document into a tree.
func Decode(data []byte) (sforce.Tree, error) {
	tree := sforce.Tree{}

	err := yaml.Unmarshal(data, &tree)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding resource tree: %w", sforce.ErrConfiguration, err)
	}

	return tree, nil
}

// Encode renders tree as YAML.
func Encode(tree sforce.Tree) ([]byte, error) {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encoding resource tree: %w", err)
	}

	return data, nil
}

// LoadFile reads a YAML or JSON tree from path.
func LoadFile(path string) (sforce.Tree, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading resource tree: %w", err)
	}

	return Decode(data)
}

// StoreFile writes tree to path as YAML.
func StoreFile(path string, tree sforce.Tree) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing resource tree: %w", err)
	}

	return nil
}

// natsLocation is a parsed nats://host:port/bucket/key reference.
type natsLocation struct {
	serverURL string
	bucket    string
	key       string
}

func parseNATS(ref string) (*natsLocation, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReference, err)
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %q, expected nats://host:port/<bucket>/<key>", ErrInvalidReference, ref)
	}

	server := url.URL{Scheme: u.Scheme, User: u.User, Host: u.Host}

	return &natsLocation{serverURL: server.String(), bucket: bucket, key: key}, nil
}
