package salesforce

import (
	_ "embed"

	"github.com/fivetwenty-io/sforce/internal/treesource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// CatalogSource names the built-in catalog as a tree source.
const CatalogSource = treesource.SchemeBuiltin + ":salesforce"

//go:embed catalog.yaml
var catalogYAML []byte

func init() {
	treesource.RegisterBuiltin("salesforce", Catalog)
}

// Catalog returns the built-in Salesforce resource tree.
func Catalog() (sforce.Tree, error) {
	return treesource.Decode(catalogYAML)
}
