package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fivetwenty-io/sforce/internal/salesforce"
	"github.com/fivetwenty-io/sforce/internal/treesource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewTreeCommand creates the tree command group.
func NewTreeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Inspect and publish resource trees",
		Long: `Resource trees are read from sources named <scheme>:<location>:

  builtin:salesforce                  the embedded Salesforce catalog
  file:/path/to/resources.yml         a YAML or JSON file
  nats://host:4222/<bucket>/<key>     a NATS JetStream key-value entry`,
	}

	cmd.AddCommand(newTreeShowCommand())
	cmd.AddCommand(newTreeExportCommand())
	cmd.AddCommand(&cobra.Command{
		Use:   "builtins",
		Short: "List the built-in trees",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range treesource.Builtins() {
				fmt.Println(treesource.SchemeBuiltin + ":" + name)
			}
		},
	})

	return cmd
}

// effectiveTree loads source, or the configured tree merged over the
// configured source when source is empty.
func effectiveTree(ctx context.Context, source string) (sforce.Tree, error) {
	if source != "" {
		return treesource.Load(ctx, source)
	}

	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	inline, err := treesource.FromViper(viper.GetViper(), "resources")
	if err != nil {
		return nil, err
	}

	ref := config.Tree
	if ref == "" && config.BaseURL == "" {
		ref = salesforce.CatalogSource
	}

	return treesource.Resolve(ctx, inline, ref)
}

func newTreeShowCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a resource tree as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := effectiveTree(context.Background(), source)
			if err != nil {
				return err
			}

			data, err := treesource.Encode(tree)
			if err != nil {
				return err
			}

			_, err = os.Stdout.Write(data)

			return err
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "tree source to show instead of the configured tree")

	return cmd
}

func newTreeExportCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "export DESTINATION",
		Short: "Write a resource tree to a file or NATS bucket",
		Long: `Write a resource tree to a source other clients can load.

Examples:
  sforce tree export ./salesforce.yml --source builtin:salesforce
  sforce tree export nats://127.0.0.1:4222/trees/salesforce`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tree, err := effectiveTree(ctx, source)
			if err != nil {
				return err
			}

			dest := destination(args[0])

			err = treesource.Store(ctx, dest, tree)
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d resources to %s\n", len(tree), dest)

			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "tree source to export instead of the configured tree")

	return cmd
}

// destination treats scheme-less arguments as file paths.
func destination(arg string) string {
	if strings.Contains(arg, ":") {
		return arg
	}

	return treesource.SchemeFile + ":" + arg
}
