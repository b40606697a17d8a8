package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/spf13/cobra"
)

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	var (
		params []string
		data   string
	)

	cmd := &cobra.Command{
		Use:   "call VERB RESOURCE",
		Short: "Call a resource",
		Long: `Call a resource of the tree by name.

Examples:
  sforce call get limits
  sforce call get Account -p id=001D000000IqhSLIAZ
  sforce call get Account.updated -p start=2024-01-01 -p end=2024-01-02
  sforce call patch Account -p id=001D000000IqhSLIAZ -d '{"Name":"Acme"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			ctx := context.Background()

			cli, err := newClient(ctx)
			if err != nil {
				return err
			}

			payload, err := dispatch(ctx, cli, strings.ToUpper(args[0]), args[1], parsed, parseData(data))
			if err != nil {
				return err
			}

			return printPayload(payload)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "path parameter as key=value, repeatable")
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body, JSON or text")

	return cmd
}

func dispatch(ctx context.Context, cli sforce.Client, method, name string, params sforce.Params, data any) (sforce.Payload, error) {
	switch method {
	case http.MethodHead:
		return cli.Head(ctx, name, params, data)
	case http.MethodGet:
		return cli.Get(ctx, name, params, data)
	case http.MethodPost:
		return cli.Post(ctx, name, params, data)
	case http.MethodPut:
		return cli.Put(ctx, name, params, data)
	case http.MethodPatch:
		return cli.Patch(ctx, name, params, data)
	case http.MethodDelete:
		return cli.Delete(ctx, name, params, data)
	default:
		return nil, fmt.Errorf("%w: %s", sforce.ErrMethodNotAllowed, method)
	}
}

// NewRawCommand creates the raw command.
func NewRawCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "raw METHOD PATH",
		Short: "Call a literal path with the default resource class",
		Long: `Call a path relative to the API root without declaring it first.

Examples:
  sforce raw get sobjects/Account/describe/`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cli, err := newClient(ctx)
			if err != nil {
				return err
			}

			payload, err := cli.Raw(ctx, args[0], args[1], parseData(data))
			if err != nil {
				return err
			}

			return printPayload(payload)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "request body, JSON or text")

	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		all    bool
		search bool
	)

	cmd := &cobra.Command{
		Use:   "query STATEMENT",
		Short: "Run a SOQL query or a SOSL search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			api, err := newSalesforceClient(ctx)
			if err != nil {
				return err
			}

			var payload sforce.Payload

			switch {
			case search:
				payload, err = api.Search(ctx, args[0])
			case all:
				payload, err = api.QueryAll(ctx, args[0])
			default:
				payload, err = api.Query(ctx, args[0])
			}

			if err != nil {
				return err
			}

			return printPayload(payload)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include deleted and archived records")
	cmd.Flags().BoolVar(&search, "search", false, "treat the statement as SOSL")

	return cmd
}

func parseParams(raw []string) (sforce.Params, error) {
	params := sforce.Params{}

	for _, pair := range raw {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidParameter, pair)
		}

		params[key] = value
	}

	return params, nil
}

// parseData decodes JSON bodies and passes anything else through as text.
func parseData(raw string) any {
	if raw == "" {
		return nil
	}

	var decoded any

	err := json.Unmarshal([]byte(raw), &decoded)
	if err != nil {
		return raw
	}

	return decoded
}
