package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/fivetwenty-io/sforce/internal/logging"
	"github.com/fivetwenty-io/sforce/internal/registry"
	"github.com/fivetwenty-io/sforce/internal/resource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Static errors for err113 compliance.
var (
	ErrNoTree    = errors.New("either a resource tree or a resource tree source must be set")
	ErrNoSession = errors.New("no session configured")
)

// Call is one dispatch: a resource, given by name or already prepared, and the
// method, params and data of the request.
type Call struct {
	Resource string
	Prepared *resource.Resource
	Method   string
	Params   sforce.Params
	Data     any
	Record   sforce.Record
	// Replay marks a call re-issued after a credential refresh.
	Replay bool
}

// DispatchFunc executes a call.
type DispatchFunc func(ctx context.Context, call *Call) (sforce.Payload, error)

// Middleware wraps a DispatchFunc. The first middleware added is the
// outermost.
type Middleware func(next DispatchFunc) DispatchFunc

// AliasFunc rewrites a resource name before it is looked up.
type AliasFunc func(name string, has func(string) bool) string

// Client dispatches verbs to the resources of a tree. It implements
// sforce.Client and resource.Backend.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	session    sforce.Session
	logger     sforce.Logger
	registry   *registry.Registry
	alias      AliasFunc
	middleware []Middleware
}

var (
	_ sforce.Client    = (*Client)(nil)
	_ resource.Backend = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the URL every resource path is resolved against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithSession sets the transport.
func WithSession(session sforce.Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithLogger sets the logger.
func WithLogger(logger sforce.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry replaces the registry, e.g. to use extra classes or another
// default class.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Client) {
		c.registry = reg
	}
}

// WithAlias installs a name rewriting hook.
func WithAlias(alias AliasFunc) Option {
	return func(c *Client) {
		c.alias = alias
	}
}

// WithMiddleware appends dispatch middleware.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// New creates a client and eagerly builds tree.
func New(tree sforce.Tree, opts ...Option) (*Client, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: %w", sforce.ErrConfiguration, ErrNoTree)
	}

	client := &Client{
		logger:   logging.Discard(),
		registry: registry.New(nil, ""),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.session == nil {
		return nil, fmt.Errorf("%w: %w", sforce.ErrConfiguration, ErrNoSession)
	}

	err := client.registry.Build(tree)
	if err != nil {
		return nil, fmt.Errorf("building resource tree: %w", err)
	}

	return client, nil
}

// BaseURL implements resource.Backend.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.baseURL
}

// SetBaseURL changes the base URL, e.g. after a token refresh.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.baseURL = baseURL
}

// Session implements resource.Backend.
func (c *Client) Session() sforce.Session {
	return c.session
}

// Logger implements resource.Backend.
func (c *Client) Logger() sforce.Logger {
	return c.logger
}

// Registry returns the resource namespace.
func (c *Client) Registry() *registry.Registry {
	return c.registry
}

// Use appends dispatch middleware.
func (c *Client) Use(middleware ...Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.middleware = append(c.middleware, middleware...)
}

// Resource instantiates the resource registered under name.
func (c *Client) Resource(name string, opts ...resource.Option) (*resource.Resource, error) {
	resolved := name
	if c.alias != nil {
		resolved = c.alias(name, c.registry.Has)
	}

	typ, ok := c.registry.Lookup(resolved)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a valid resource", sforce.ErrResourceNotFound, name)
	}

	return resource.New(c, typ, opts...), nil
}

// Dispatch runs call through the middleware chain.
func (c *Client) Dispatch(ctx context.Context, call *Call) (sforce.Payload, error) {
	c.mu.RLock()
	handler := DispatchFunc(c.dispatch)

	for i := len(c.middleware) - 1; i >= 0; i-- {
		handler = c.middleware[i](handler)
	}
	c.mu.RUnlock()

	return handler(ctx, call)
}

func (c *Client) dispatch(ctx context.Context, call *Call) (sforce.Payload, error) {
	res := call.Prepared
	if res == nil {
		var err error

		res, err = c.Resource(call.Resource, resource.WithParams(call.Params), resource.WithRecord(call.Record))
		if err != nil {
			return nil, err
		}
	}

	return res.Execute(ctx, call.Method, call.Data)
}

func (c *Client) verb(ctx context.Context, method, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.Dispatch(ctx, &Call{Resource: name, Method: method, Params: params, Data: data})
}

// Head implements sforce.Client.
func (c *Client) Head(ctx context.Context, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.verb(ctx, http.MethodHead, name, params, data)
}

// Get implements sforce.Client.
func (c *Client) Get(ctx context.Context, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.verb(ctx, http.MethodGet, name, params, data)
}

// Post implements sforce.Client.
func (c *Client) Post(ctx context.Context, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.verb(ctx, http.MethodPost, name, params, data)
}

// Put implements sforce.Client.
func (c *Client) Put(ctx context.Context, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.verb(ctx, http.MethodPut, name, params, data)
}

// Patch implements sforce.Client.
func (c *Client) Patch(ctx context.Context, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.verb(ctx, http.MethodPatch, name, params, data)
}

// Delete implements sforce.Client.
func (c *Client) Delete(ctx context.Context, name string, params sforce.Params, data any) (sforce.Payload, error) {
	return c.verb(ctx, http.MethodDelete, name, params, data)
}

// Raw calls a literal path with the default class, bypassing the registry.
// It is meant for exploration and tests.
func (c *Client) Raw(ctx context.Context, method, path string, data any) (sforce.Payload, error) {
	class, err := c.registry.DefaultClass()
	if err != nil {
		return nil, err
	}

	class.Path = path
	res := resource.New(c, resource.NewType("", class, nil))

	return c.Dispatch(ctx, &Call{Prepared: res, Method: strings.ToUpper(method), Data: data})
}

// Extend registers tree below the resource named parent, or at the top
// level when parent is empty.
func (c *Client) Extend(parent string, tree sforce.Tree) error {
	var parentType *resource.Type

	if parent != "" {
		typ, ok := c.registry.Lookup(parent)
		if !ok {
			return fmt.Errorf("%w: %s is not a valid resource", sforce.ErrResourceNotFound, parent)
		}

		parentType = typ
	}

	if parentType == nil {
		return c.registry.Build(tree)
	}

	for _, name := range tree.Names() {
		_, err := c.registry.Add(name, tree[name], parentType)
		if err != nil {
			return fmt.Errorf("extending %s: %w", parent, err)
		}
	}

	return nil
}

// Resources implements sforce.Client.
func (c *Client) Resources() []sforce.ResourceInfo {
	types := c.registry.Types()

	infos := make([]sforce.ResourceInfo, 0, len(types))
	for _, typ := range types {
		infos = append(infos, typ.Info())
	}

	return infos
}
