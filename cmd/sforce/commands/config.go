package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/go-viper/mapstructure/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the persisted CLI configuration. The password is never stored,
// it is read from SFORCE_PASSWORD or prompted for.
type Config struct {
	AuthDomain    string   `json:"auth_domain,omitempty"        mapstructure:"auth_domain"        yaml:"auth_domain,omitempty"`
	APIVersion    string   `json:"api_version,omitempty"        mapstructure:"api_version"        yaml:"api_version,omitempty"`
	Username      string   `json:"username,omitempty"           mapstructure:"username"           yaml:"username,omitempty"`
	SecurityToken string   `json:"security_token,omitempty"     mapstructure:"security_token"     yaml:"security_token,omitempty"`
	ClientID      string   `json:"client_id,omitempty"          mapstructure:"client_id"          yaml:"client_id,omitempty"`
	ClientSecret  string   `json:"client_secret,omitempty"      mapstructure:"client_secret"      yaml:"client_secret,omitempty"`
	Whitelist     []string `json:"sobjects_whitelist,omitempty" mapstructure:"sobjects_whitelist" yaml:"sobjects_whitelist,omitempty"`

	// Generic APIs.
	BaseURL  string `json:"base_url,omitempty"  mapstructure:"base_url"  yaml:"base_url,omitempty"`
	RootPath string `json:"root_path,omitempty" mapstructure:"root_path" yaml:"root_path,omitempty"`
	Tree     string `json:"tree,omitempty"      mapstructure:"tree"      yaml:"tree,omitempty"`
	// Resources is an inline tree, decoded separately by treesource.FromViper.
	Resources map[string]interface{} `json:"resources,omitempty" mapstructure:"resources" yaml:"resources,omitempty"`

	// Headers are sent with every request.
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers" yaml:"headers,omitempty"`

	Database string `json:"database,omitempty" mapstructure:"database" yaml:"database,omitempty"`
	Output   string `json:"output,omitempty"   mapstructure:"output"   yaml:"output,omitempty"`

	Token *sforce.Token `json:"token,omitempty" mapstructure:"token" yaml:"token,omitempty"`
}

// configKeys are the scalar settings accepted by config set and unset.
var configKeys = map[string]func(*Config) *string{
	"auth_domain":    func(c *Config) *string { return &c.AuthDomain },
	"api_version":    func(c *Config) *string { return &c.APIVersion },
	"username":       func(c *Config) *string { return &c.Username },
	"security_token": func(c *Config) *string { return &c.SecurityToken },
	"client_id":      func(c *Config) *string { return &c.ClientID },
	"client_secret":  func(c *Config) *string { return &c.ClientSecret },
	"base_url":       func(c *Config) *string { return &c.BaseURL },
	"root_path":      func(c *Config) *string { return &c.RootPath },
	"tree":           func(c *Config) *string { return &c.Tree },
	"database":       func(c *Config) *string { return &c.Database },
	"output":         func(c *Config) *string { return &c.Output },
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and edit the settings stored in ~/.sforce/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			switch viper.GetString("output") {
			case constants.OutputJSON:
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.OutputYAML:
				return yaml.NewEncoder(os.Stdout).Encode(config)
			default:
				return displayConfigTable(config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(sortedConfigKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(args[0], args[1])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfig(args[0], "")
		},
	}
}

func updateConfig(key, value string) error {
	field, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	*field(config) = value

	err = saveConfig(config)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Printf("Unset %s\n", key)
	} else {
		fmt.Printf("Set %s\n", key)
	}

	return nil
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

// loadConfig decodes the viper state, which already merges the config file,
// SFORCE_* variables and bound flags.
func loadConfig() (*Config, error) {
	config := &Config{}

	err := viper.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	return config, nil
}

func configFile() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(home, constants.ConfigDirName)

	err = os.MkdirAll(configDir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.yml"), nil
}

func saveConfig(config *Config) error {
	path, err := configFile()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func displayConfigTable(config *Config) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Setting", "Value")

	_ = table.Append("Auth domain", orDefault(config.AuthDomain, constants.DefaultAuthDomain))
	_ = table.Append("API version", orDefault(config.APIVersion, constants.DefaultAPIVersion))
	_ = table.Append("Username", config.Username)
	_ = table.Append("Client ID", config.ClientID)
	_ = table.Append("Client secret", mask(config.ClientSecret))
	_ = table.Append("Security token", mask(config.SecurityToken))
	_ = table.Append("SObjects whitelist", strings.Join(config.Whitelist, ", "))
	_ = table.Append("Base URL", config.BaseURL)
	_ = table.Append("Tree", config.Tree)
	_ = table.Append("Database", config.Database)

	if config.Token != nil {
		_ = table.Append("Instance URL", config.Token.InstanceURL)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}

	return "********"
}
