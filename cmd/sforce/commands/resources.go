package commands

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewResourcesCommand creates the resources command.
func NewResourcesCommand() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the registered resources",
		Long:  "List every resource of the tree with its path, verbs and addressing mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := newClient(context.Background())
			if err != nil {
				return err
			}

			infos := filterResources(cli.Resources(), filter)

			switch viper.GetString("output") {
			case constants.OutputJSON:
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(infos)
			case constants.OutputYAML:
				return yaml.NewEncoder(os.Stdout).Encode(infos)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Name", "Path", "Methods", "Format", "Addressing")

				for _, info := range infos {
					_ = table.Append(info.Name, info.Path, strings.Join(info.Methods, ","),
						info.Format.String(), info.Addressing.String())
				}

				return render(table)
			}
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only show resources whose name contains this text")

	return cmd
}

func filterResources(infos []sforce.ResourceInfo, filter string) []sforce.ResourceInfo {
	if filter == "" {
		return infos
	}

	out := make([]sforce.ResourceInfo, 0, len(infos))

	for _, info := range infos {
		if strings.Contains(strings.ToLower(info.Name), strings.ToLower(filter)) {
			out = append(out, info)
		}
	}

	return out
}
