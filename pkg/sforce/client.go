package sforce

import (
	"context"
	"net/http"
	"time"
)

// Request is one transport call as seen by sessions and interceptors.
type Request struct {
	Method   string
	URL      string
	Headers  http.Header
	Body     []byte
	Timeout  time.Duration
	Metadata map[string]interface{}
}

// Response is the transport answer to a Request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}

	return string(r.Body)
}

// Session performs HTTP calls. Implementations must report timeouts with an
// error wrapping ErrTimeout.
type Session interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Token is the credential state returned by an OAuth2 token endpoint.
type Token struct {
	AccessToken string    `json:"access_token"         mapstructure:"access_token" yaml:"access_token"`
	TokenType   string    `json:"token_type"           mapstructure:"token_type"   yaml:"token_type"`
	InstanceURL string    `json:"instance_url"         mapstructure:"instance_url" yaml:"instance_url"`
	ID          string    `json:"id,omitempty"         mapstructure:"id"           yaml:"id,omitempty"`
	IssuedAt    string    `json:"issued_at,omitempty"  mapstructure:"issued_at"    yaml:"issued_at,omitempty"`
	Signature   string    `json:"signature,omitempty"  mapstructure:"signature"    yaml:"signature,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty" mapstructure:"expires_at"   yaml:"expires_at,omitempty"`
}

// TokenExpiryBuffer is subtracted from a token expiry before it is trusted.
const TokenExpiryBuffer = 30 * time.Second

// Valid reports whether the token can be used. Tokens without an expiry
// (Salesforce does not send one) stay valid until the API rejects them.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	return t.ExpiresAt.IsZero() || time.Now().Add(TokenExpiryBuffer).Before(t.ExpiresAt)
}

// TokenFetcher obtains a fresh token. The OAuth protocol behind it is opaque
// to the client.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (*Token, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ResourceInfo describes a registered resource type.
type ResourceInfo struct {
	Name       string     `json:"name"       yaml:"name"`
	Path       string     `json:"path"       yaml:"path"`
	Methods    []string   `json:"methods"    yaml:"methods"`
	Format     Format     `json:"format"     yaml:"format"`
	Addressing Addressing `json:"addressing" yaml:"addressing"`
}

// Client dispatches verbs to named resources.
type Client interface {
	Head(ctx context.Context, resource string, params Params, data any) (Payload, error)
	Get(ctx context.Context, resource string, params Params, data any) (Payload, error)
	Post(ctx context.Context, resource string, params Params, data any) (Payload, error)
	Put(ctx context.Context, resource string, params Params, data any) (Payload, error)
	Patch(ctx context.Context, resource string, params Params, data any) (Payload, error)
	Delete(ctx context.Context, resource string, params Params, data any) (Payload, error)

	// Raw calls a literal path with the default class, bypassing the registry.
	Raw(ctx context.Context, method, path string, data any) (Payload, error)

	Resources() []ResourceInfo
	BaseURL() string
}

// PullOptions tunes ModelClient.Pull.
type PullOptions struct {
	Save bool
}

// PullOption configures a pull.
type PullOption func(*PullOptions)

// WithoutSave skips persisting the record after a pull.
func WithoutSave() PullOption {
	return func(o *PullOptions) {
		o.Save = false
	}
}

// ModelClient synchronizes local records with model-backed resources.
type ModelClient interface {
	Client
	Pull(ctx context.Context, resource string, record Record, opts ...PullOption) (Payload, error)
	Push(ctx context.Context, resource string, record Record) (Payload, error)
}

// SalesforceClient is a ModelClient authenticated against a Salesforce org.
// Discovered objects are reachable by their short name ("Account").
type SalesforceClient interface {
	ModelClient
	Query(ctx context.Context, soql string) (Payload, error)
	QueryAll(ctx context.Context, soql string) (Payload, error)
	Search(ctx context.Context, sosl string) (Payload, error)
	Token() *Token
}

// Config represents client configuration.
//
// # Resource tree
//
// A client needs a resource tree: either Tree inline, or TreeSource naming an
// external source ("builtin:salesforce", "file:resources.yml",
// "nats://host:4222/bucket/key"). Both may be set, inline nodes win.
//
// # Authentication
//
// The Salesforce client uses the OAuth2 password grant against TokenURL with
// Username, Password+SecurityToken, ClientID and ClientSecret. The returned
// instance_url replaces BaseURL.
type Config struct {
	// BaseURL is scheme and domain, e.g. "https://api.example.com".
	BaseURL string
	// RootPath is joined to BaseURL, e.g. "rest/v1.0/".
	RootPath string

	Tree       Tree
	TreeSource string
	// DefaultClass is the class registry key used by nodes without a class.
	DefaultClass string
	// Classes are registered in addition to the built-in ones.
	Classes map[string]Class

	TokenURL      string
	Username      string
	Password      string
	SecurityToken string
	ClientID      string
	ClientSecret  string
	// TokenFetcher overrides the OAuth2 password grant.
	TokenFetcher TokenFetcher

	APIVersion        string
	SObjectsWhitelist []string
	SkipDiscovery     bool

	// Session overrides the HTTP transport.
	Session Session

	HTTPTimeout  time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug logs every request and response through Logger.
	Debug     bool
	Logger    Logger
	UserAgent string

	// Headers are added to every request, e.g. Sforce-Call-Options.
	Headers map[string]string

	// Metrics collects per-endpoint statistics of the HTTP transport.
	Metrics *MetricsCollector
}
