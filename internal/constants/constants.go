package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout bounds a transport call when the resource sets none.
	DefaultHTTPTimeout = 30 * time.Second

	// SalesforceTimeout is the per-call timeout of Salesforce resources.
	SalesforceTimeout = 3 * time.Second

	// TokenTimeout bounds the OAuth2 token request.
	TokenTimeout = 10 * time.Second
)

// Retry limits. Retries are disabled unless RetryMax is configured.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Salesforce defaults.
const (
	// DefaultAPIVersion is the REST API version used in the root path.
	DefaultAPIVersion = "29.0"

	// DefaultAuthDomain is the login host of production orgs.
	DefaultAuthDomain = "https://login.salesforce.com"

	// TokenPath is appended to the auth domain to build the token URL.
	TokenPath = "/services/oauth2/token"

	// ErrorKey is the field naming a Salesforce error.
	ErrorKey = "errorCode"

	// SessionExpiredCode is the error code of an invalid or expired session.
	SessionExpiredCode = "INVALID_SESSION_ID"

	// SObjectsNamespace prefixes discovered per-object resources.
	SObjectsNamespace = "sobjects"

	// IdentityResource receives the identity URL of the token.
	IdentityResource = "identity"
)

// Date formats.
const (
	// DateRangeFormat renders date range parameters.
	DateRangeFormat = "2006-01-02T15:04:05+00:00"
)

// CLI defaults.
const (
	// ConfigDirName is created under the user's home directory.
	ConfigDirName = ".sforce"

	// EnvPrefix prefixes environment variables read by the CLI.
	EnvPrefix = "SFORCE"

	// OutputTable renders tables.
	OutputTable = "table"

	// OutputJSON renders indented JSON.
	OutputJSON = "json"

	// OutputYAML renders YAML.
	OutputYAML = "yaml"
)
