package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		authDomain    string
		username      string
		clientID      string
		clientSecret  string
		securityToken string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to a Salesforce org",
		Long: `Authenticate with the OAuth2 password grant and store the token.

The password is read from SFORCE_PASSWORD or prompted for, it is never
written to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			if config.BaseURL != "" {
				return constants.ErrNotSalesforce
			}

			setIfGiven(&config.AuthDomain, authDomain)
			setIfGiven(&config.Username, username)
			setIfGiven(&config.ClientID, clientID)
			setIfGiven(&config.ClientSecret, clientSecret)
			setIfGiven(&config.SecurityToken, securityToken)

			if config.Username == "" {
				config.Username = prompt("Username: ")
			}

			if config.ClientID == "" {
				config.ClientID = prompt("Consumer key: ")
			}

			if config.ClientSecret == "" {
				config.ClientSecret = prompt("Consumer secret: ")
			}

			cfg, err := clientConfig(config)
			if err != nil {
				return err
			}

			cfg.SkipDiscovery = true

			api, err := newSalesforce(context.Background(), config, cfg, false)
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}

			config.Token = api.Token()

			err = saveConfig(config)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in to %s as %s\n", config.Token.InstanceURL, config.Username)

			return nil
		},
	}

	cmd.Flags().StringVar(&authDomain, "auth-domain", "", "login host, e.g. https://test.salesforce.com for sandboxes")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVar(&clientID, "client-id", "", "connected app consumer key")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "connected app consumer secret")
	cmd.Flags().StringVar(&securityToken, "security-token", "", "security token appended to the password")

	return cmd
}

func setIfGiven(field *string, value string) {
	if value != "" {
		*field = value
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			config.Token = nil

			err = saveConfig(config)
			if err != nil {
				return err
			}

			fmt.Println("Logged out")

			return nil
		},
	}
}

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Show the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			if config.Token == nil {
				fmt.Println("Not logged in")

				return nil
			}

			token := *config.Token
			token.AccessToken = redact(token.AccessToken)

			switch viper.GetString("output") {
			case constants.OutputJSON:
				encoder := json.NewEncoder(os.Stdout)
				encoder.SetIndent("", "  ")

				return encoder.Encode(token)
			case constants.OutputYAML:
				return yaml.NewEncoder(os.Stdout).Encode(token)
			default:
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Property", "Value")
				_ = table.Append("Access token", token.AccessToken)
				_ = table.Append("Instance URL", token.InstanceURL)
				_ = table.Append("Identity", token.ID)
				_ = table.Append("Issued at", token.IssuedAt)

				return render(table)
			}
		},
	}
}

// redact keeps the org prefix of an access token.
func redact(token string) string {
	const visible = 15

	if len(token) <= visible {
		return mask(token)
	}

	return token[:visible] + "..."
}
