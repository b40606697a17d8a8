package constants

import "errors"

// Configuration errors.
var (
	ErrNoCredentials    = errors.New("username, password, client id and client secret are required")
	ErrNoTokenURL       = errors.New("no token URL configured")
	ErrNoInstanceURL    = errors.New("token response carries no instance_url")
	ErrNoBaseURL        = errors.New("no base URL configured")
	ErrInvalidParameter = errors.New("parameters must be given as key=value")
)

// Store errors.
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrNotAStructModel = errors.New("model must be a pointer to a struct")
)

// CLI errors.
var (
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrUnknownSyncAction = errors.New("sync action must be pull or push")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrNotSalesforce     = errors.New("command needs a Salesforce org, unset base_url")
	ErrInvalidContactID  = errors.New("contact id must be a positive integer")
)
