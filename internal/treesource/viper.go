package treesource

import (
	"fmt"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// FromViper decodes the tree stored under key. Viper folds keys to lower
// case, so resource names read this way are lower case too; use a file
// source for case-sensitive catalogs.
func FromViper(v *viper.Viper, key string) (sforce.Tree, error) {
	if !v.IsSet(key) {
		return nil, nil
	}

	return DecodeMap(v.Get(key))
}

// DecodeMap converts a generic nested map (as produced by viper or a JSON
// decoder) into a tree.
func DecodeMap(raw any) (sforce.Tree, error) {
	tree := sforce.Tree{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &tree,
		ErrorUnused:      true,
		WeaklyTypedInput: false,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tree decoder: %w", err)
	}

	err = decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding resource tree: %w", sforce.ErrConfiguration, err)
	}

	return tree, nil
}
