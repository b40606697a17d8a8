// Package http is the transport behind every resource call. It wraps
// go-retryablehttp and implements sforce.Session.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/hashicorp/go-retryablehttp"
)

// Client performs HTTP requests with optional retries and interceptors.
type Client struct {
	retryClient  *retryablehttp.Client
	interceptors *sforce.InterceptorChain
	logger       sforce.Logger
	userAgent    string
	timeout      time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for retry messages.
func WithLogger(logger sforce.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the timeout of requests that do not carry their own.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryConfig enables retries of transient failures (5xx, 429,
// connection errors). Timeouts are never retried.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryClient.RetryMax = retryMax
		c.retryClient.RetryWaitMin = waitMin
		c.retryClient.RetryWaitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.retryClient.HTTPClient = httpClient
	}
}

// WithRequestInterceptor appends a request interceptor.
func WithRequestInterceptor(interceptor sforce.RequestInterceptor) Option {
	return func(c *Client) {
		c.interceptors.AddRequestInterceptor(interceptor)
	}
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(interceptor sforce.ResponseInterceptor) Option {
	return func(c *Client) {
		c.interceptors.AddResponseInterceptor(interceptor)
	}
}

// NewClient creates a transport client. Retries are off until
// WithRetryConfig is given.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.CheckRetry = checkRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		retryClient:  retryClient,
		interceptors: sforce.NewInterceptorChain(),
		userAgent:    "sforce-go",
		timeout:      constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// Do implements sforce.Session.
func (c *Client) Do(ctx context.Context, req *sforce.Request) (*sforce.Response, error) {
	if req.Headers == nil {
		req.Headers = make(http.Header)
	}

	err := c.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body interface{}
	if len(req.Body) > 0 {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(callCtx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.retryClient.Do(httpReq)
	if err != nil {
		resp := &sforce.Response{Error: err}
		if isTimeout(err) {
			resp.Error = fmt.Errorf("%w: %s %s: %w", sforce.ErrTimeout, req.Method, req.URL, err)
		}

		_ = c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)

		return nil, resp.Error
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: reading %s %s: %w", sforce.ErrTimeout, req.Method, req.URL, err)
		}

		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &sforce.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	err = c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

// checkRetry never retries timeouts; everything else follows the default
// retryablehttp policy.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err != nil && isTimeout(err) {
		return false, err
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// leveledLogger adapts sforce.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger sforce.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
