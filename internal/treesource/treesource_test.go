package treesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
simple: {}
custom_path:
  path: custom/
custom_class:
  class: json
cascading:
  resources:
    foo:
`

func expectedTree() sforce.Tree {
	return sforce.Tree{
		"simple":       {},
		"custom_path":  {Path: "custom/"},
		"custom_class": {Class: "json"},
		"cascading":    {Resources: sforce.Tree{"foo": {}}},
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tree, err := Decode([]byte(catalogYAML))
	require.NoError(t, err)
	assert.Equal(t, expectedTree(), tree)

	tree, err = Decode([]byte(`{"a": {"resources": {"b": {"path": "bee/"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "bee/", tree["a"].Resources["b"].Path)

	_, err = Decode([]byte("a: [unclosed"))
	require.ErrorIs(t, err, sforce.ErrConfiguration)
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "trees", "resources.yml")
	ref := SchemeFile + ":" + path

	require.NoError(t, Store(context.Background(), ref, expectedTree()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tree, err := Load(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, expectedTree(), tree)
}

func TestBuiltin(t *testing.T) {
	t.Parallel()

	RegisterBuiltin("test-builtin", func() (sforce.Tree, error) {
		return sforce.Tree{"limits": {}}, nil
	})

	tree, err := Load(context.Background(), "builtin:test-builtin")
	require.NoError(t, err)
	assert.Contains(t, tree, "limits")
	assert.Contains(t, Builtins(), "test-builtin")

	_, err = Load(context.Background(), "builtin:nope")
	require.ErrorIs(t, err, sforce.ErrTreeSourceUnknown)

	err = Store(context.Background(), "builtin:test-builtin", tree)
	require.ErrorIs(t, err, ErrReadOnlySource)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), "resources.yml")
	require.ErrorIs(t, err, ErrInvalidReference)

	_, err = Load(context.Background(), "ftp:somewhere")
	require.ErrorIs(t, err, sforce.ErrTreeSourceUnknown)

	_, err = Load(context.Background(), "file:"+filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	RegisterBuiltin("test-resolve", func() (sforce.Tree, error) {
		return sforce.Tree{"a": {Path: "from-source/"}, "b": {}}, nil
	})

	tree, err := Resolve(context.Background(), sforce.Tree{"a": {Path: "inline/"}}, "builtin:test-resolve")
	require.NoError(t, err)
	assert.Equal(t, "inline/", tree["a"].Path)
	assert.Contains(t, tree, "b")

	tree, err = Resolve(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Nil(t, tree)
}

func TestFromViper(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("resources", map[string]any{
		"limits": map[string]any{},
		"chatter": map[string]any{
			"resources": map[string]any{
				"feeds": map[string]any{"path": "feeds/"},
			},
		},
	})

	tree, err := FromViper(v, "resources")
	require.NoError(t, err)
	assert.Equal(t, "feeds/", tree["chatter"].Resources["feeds"].Path)
	assert.Contains(t, tree, "limits")

	tree, err = FromViper(v, "missing")
	require.NoError(t, err)
	assert.Nil(t, tree)
}

func TestDecodeMapRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := DecodeMap(map[string]any{"a": map[string]any{"pth": "typo/"}})
	require.ErrorIs(t, err, sforce.ErrConfiguration)
}

func TestParseNATS(t *testing.T) {
	t.Parallel()

	loc, err := parseNATS("nats://127.0.0.1:4222/trees/salesforce")
	require.NoError(t, err)
	assert.Equal(t, "nats://127.0.0.1:4222", loc.serverURL)
	assert.Equal(t, "trees", loc.bucket)
	assert.Equal(t, "salesforce", loc.key)

	_, err = parseNATS("nats://127.0.0.1:4222/trees")
	require.ErrorIs(t, err, ErrInvalidReference)
}
