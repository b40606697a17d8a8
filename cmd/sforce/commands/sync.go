package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

const (
	syncPull = "pull"
	syncPush = "push"
)

// databasePath returns the configured contact database, defaulting to
// ~/.sforce/sforce.db.
func databasePath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	config, err := loadConfig()
	if err != nil {
		return "", err
	}

	if config.Database != "" {
		return config.Database, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := filepath.Join(home, constants.ConfigDirName)

	err = os.MkdirAll(dir, constants.ConfigDirPerm)
	if err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(dir, "sforce.db"), nil
}

func openDatabase(flag string) (*gorm.DB, error) {
	path, err := databasePath(flag)
	if err != nil {
		return nil, err
	}

	return store.Open(path, newLogger().HCLog())
}

// NewSyncCommand creates the sync command.
func NewSyncCommand() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "sync pull|push CONTACT_ID",
		Short: "Synchronize a local contact with its Salesforce Contact",
		Long: `Push a local contact to Salesforce, creating the remote Contact on first
push, or pull the remote fields into the local contact.

Examples:
  sforce contacts add --first-name Ada --last-name Lovelace
  sforce sync push 1
  sforce sync pull 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := args[0]
			if action != syncPull && action != syncPush {
				return fmt.Errorf("%w: %q", constants.ErrUnknownSyncAction, action)
			}

			id, err := strconv.ParseUint(args[1], 10, 0)
			if err != nil {
				return fmt.Errorf("%w: %q", constants.ErrInvalidContactID, args[1])
			}

			db, err := openDatabase(database)
			if err != nil {
				return err
			}

			ctx := context.Background()

			contact, err := store.FindContact(ctx, db, uint(id))
			if err != nil {
				return err
			}

			record, err := store.Bind(db, contact)
			if err != nil {
				return err
			}

			api, err := newSalesforceClient(ctx)
			if err != nil {
				return err
			}

			if action == syncPush {
				_, err = api.Push(ctx, contactSyncResource, record)
			} else {
				_, err = api.Pull(ctx, contactSyncResource, record)
			}

			if err != nil {
				return fmt.Errorf("failed to %s contact %d: %w", action, id, err)
			}

			return printContacts([]store.Contact{*contact})
		},
	}

	cmd.Flags().StringVar(&database, "db", "", "contact database (default ~/.sforce/sforce.db)")

	return cmd
}

// NewContactsCommand creates the contacts command group.
func NewContactsCommand() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the local contact database",
	}

	cmd.PersistentFlags().StringVar(&database, "db", "", "contact database (default ~/.sforce/sforce.db)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List local contacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(database)
			if err != nil {
				return err
			}

			contacts, err := store.ListContacts(context.Background(), db)
			if err != nil {
				return err
			}

			return printContacts(contacts)
		},
	})

	cmd.AddCommand(newContactsAddCommand(&database))

	return cmd
}

func newContactsAddCommand(database *string) *cobra.Command {
	contact := store.Contact{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a local contact",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(*database)
			if err != nil {
				return err
			}

			err = store.CreateContact(context.Background(), db, &contact)
			if err != nil {
				return err
			}

			return printContacts([]store.Contact{contact})
		},
	}

	cmd.Flags().StringVar(&contact.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&contact.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&contact.Email, "email", "", "email address")
	cmd.Flags().StringVar(&contact.RemoteID, "remote-id", "", "existing Salesforce Contact id")

	return cmd
}

func printContacts(contacts []store.Contact) error {
	switch viper.GetString("output") {
	case constants.OutputJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(contacts)
	case constants.OutputYAML:
		return yaml.NewEncoder(os.Stdout).Encode(contacts)
	default:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "First Name", "Last Name", "Email", "Salesforce ID")

		for _, c := range contacts {
			_ = table.Append(strconv.FormatUint(uint64(c.ID), 10), c.FirstName, c.LastName, c.Email, c.RemoteID)
		}

		return render(table)
	}
}
