package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Backend is what a resource needs from the client that created it.
type Backend interface {
	BaseURL() string
	Session() sforce.Session
	Logger() sforce.Logger
}

// Resource is one Type bound to a backend and the params of a single call.
// Resources are created per call and never shared.
type Resource struct {
	Type   *Type
	Params sforce.Params
	// Record is the local record of model-backed resources.
	Record sforce.Record

	template string
	backend  Backend
}

// Option configures a Resource.
type Option func(*Resource)

// WithParams sets the path params. The map is copied.
func WithParams(params sforce.Params) Option {
	return func(r *Resource) {
		r.Params = params.Clone()
	}
}

// WithRecord binds a local record to a model-backed resource.
func WithRecord(record sforce.Record) Option {
	return func(r *Resource) {
		r.Record = record
	}
}

// New instantiates t against backend.
func New(backend Backend, t *Type, opts ...Option) *Resource {
	r := &Resource{
		Type:     t,
		Params:   sforce.Params{},
		template: t.Path,
		backend:  backend,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// String implements fmt.Stringer.
func (r *Resource) String() string {
	return r.Type.String()
}

// Headers returns the request headers of the resource format.
func (r *Resource) Headers() http.Header {
	headers := make(http.Header)
	if r.Type.Format == sforce.FormatJSON {
		headers.Set("Content-Type", "application/json")
		headers.Set("Accept", "application/json")
	}

	return headers
}

// ExpectedStatus is the success status code of method.
func ExpectedStatus(method string) int {
	switch method {
	case http.MethodPost:
		return http.StatusCreated
	case http.MethodPut, http.MethodPatch, http.MethodDelete:
		return http.StatusNoContent
	default:
		return http.StatusOK
	}
}

func (r *Resource) formatData(data any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch v := data.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}

	if r.Type.Format == sforce.FormatText {
		return []byte(fmt.Sprint(data)), nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding data for %s: %w", r.Type, err)
	}

	return body, nil
}

func (r *Resource) parseResponse(method, url string, resp *sforce.Response) (sforce.Payload, error) {
	if r.Type.Format == sforce.FormatText {
		return resp.Text(), nil
	}

	if len(resp.Body) == 0 && method == http.MethodHead {
		return nil, nil
	}

	var payload any

	err := json.Unmarshal(resp.Body, &payload)
	if err != nil {
		return nil, &sforce.ParseError{Method: method, URL: url, Text: resp.Text(), Err: err}
	}

	return payload, nil
}

// Execute performs method on the resource and returns the parsed payload.
func (r *Resource) Execute(ctx context.Context, method string, data any) (sforce.Payload, error) {
	if !r.Type.Allows(method) {
		return nil, fmt.Errorf("%w: the method %s is not available for the resource %s",
			sforce.ErrMethodNotAllowed, method, r.Type)
	}

	url, err := r.URL()
	if err != nil {
		return nil, err
	}

	body, err := r.formatData(data)
	if err != nil {
		return nil, err
	}

	logger := r.backend.Logger()
	logger.Info("Accessing api", map[string]interface{}{
		"method": method,
		"url":    url,
		"data":   string(body),
	})

	resp, err := r.backend.Session().Do(ctx, &sforce.Request{
		Method:  method,
		URL:     url,
		Headers: r.Headers(),
		Body:    body,
		Timeout: r.Type.Timeout,
	})
	if err != nil {
		apiErr := &sforce.APIError{Method: method, URL: url, Err: err}
		logger.Error(apiErr.Error(), nil)

		return nil, apiErr
	}

	logger.Debug("Api call returned", map[string]interface{}{
		"status": resp.StatusCode,
		"body":   resp.Text(),
	})

	expected := ExpectedStatus(method)
	if resp.StatusCode != expected {
		return nil, r.statusError(method, url, expected, resp)
	}

	var payload sforce.Payload
	if expected == http.StatusNoContent {
		payload = map[string]any{}
	} else {
		payload, err = r.parseResponse(method, url, resp)
		if err != nil {
			logger.Error(err.Error(), nil)

			return nil, err
		}
	}

	if r.Type.PostProcess != nil {
		err = r.Type.PostProcess(ctx, method, payload)
		if err != nil {
			return nil, fmt.Errorf("post processing %s %s: %w", method, r.Type, err)
		}
	}

	return payload, nil
}

// statusError builds the APIError of an unexpected status code. The parsed
// body is attached when it carries the error key.
func (r *Resource) statusError(method, url string, expected int, resp *sforce.Response) error {
	apiErr := &sforce.APIError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Expected:   expected,
	}

	if len(resp.Body) == 0 {
		r.backend.Logger().Error(apiErr.Error(), nil)

		return apiErr
	}

	payload, err := r.parseResponse(method, url, resp)
	if err != nil {
		apiErr.Err = err
	} else if fields, ok := sforce.FirstFields(payload); ok {
		if _, hasKey := fields[r.Type.ErrorKey]; hasKey {
			apiErr.Payload = fields
		}
	}

	r.backend.Logger().Error(apiErr.Error(), nil)

	return apiErr
}

// Head performs a HEAD call.
func (r *Resource) Head(ctx context.Context, data any) (sforce.Payload, error) {
	return r.Execute(ctx, http.MethodHead, data)
}

// Get performs a GET call.
func (r *Resource) Get(ctx context.Context, data any) (sforce.Payload, error) {
	return r.Execute(ctx, http.MethodGet, data)
}

// Post performs a POST call and expects 201 Created.
func (r *Resource) Post(ctx context.Context, data any) (sforce.Payload, error) {
	return r.Execute(ctx, http.MethodPost, data)
}

// Put performs a PUT call and expects 204 No Content.
func (r *Resource) Put(ctx context.Context, data any) (sforce.Payload, error) {
	return r.Execute(ctx, http.MethodPut, data)
}

// Patch performs a PATCH call and expects 204 No Content.
func (r *Resource) Patch(ctx context.Context, data any) (sforce.Payload, error) {
	return r.Execute(ctx, http.MethodPatch, data)
}

// Delete performs a DELETE call and expects 204 No Content.
func (r *Resource) Delete(ctx context.Context, data any) (sforce.Payload, error) {
	return r.Execute(ctx, http.MethodDelete, data)
}

// IsAPIError reports whether err is an *sforce.APIError and returns it.
func IsAPIError(err error) (*sforce.APIError, bool) {
	apiErr := &sforce.APIError{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}
