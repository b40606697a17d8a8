package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the sforce CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version    string `json:"version"     yaml:"version"`
				Commit     string `json:"commit"      yaml:"commit"`
				Built      string `json:"built"       yaml:"built"`
				APIVersion string `json:"api_version" yaml:"api_version"`
			}

			versionInfo := VersionInfo{
				Version:    version,
				Commit:     commit,
				Built:      date,
				APIVersion: constants.DefaultAPIVersion,
			}

			switch viper.GetString("output") {
			case constants.OutputJSON:
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(versionInfo)
			case constants.OutputYAML:
				return yaml.NewEncoder(os.Stdout).Encode(versionInfo)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("Version", version)
				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)
				_ = table.Append("Default API version", constants.DefaultAPIVersion)

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}
