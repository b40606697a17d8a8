// Package modelsync synchronizes local records with model-backed resources.
package modelsync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fivetwenty-io/sforce/internal/client"
	"github.com/fivetwenty-io/sforce/internal/resource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Syncer pulls and pushes records through a client.
type Syncer struct {
	client *client.Client
}

// New creates a Syncer dispatching through c.
func New(c *client.Client) *Syncer {
	return &Syncer{client: c}
}

func (s *Syncer) bind(name string, record sforce.Record) (*resource.Resource, *sforce.ModelSpec, error) {
	res, err := s.client.Resource(name, resource.WithRecord(record))
	if err != nil {
		return nil, nil, err
	}

	spec := res.Type.Model
	if spec == nil {
		return nil, nil, fmt.Errorf("%w: resource %s is not bound to a model", sforce.ErrConfiguration, res)
	}

	return res, spec, nil
}

// Pull copies the remote fields of record into it and saves it unless
// sforce.WithoutSave is given. The record must already carry a remote id.
func (s *Syncer) Pull(ctx context.Context, name string, record sforce.Record, opts ...sforce.PullOption) (sforce.Payload, error) {
	options := sforce.PullOptions{Save: true}
	for _, opt := range opts {
		opt(&options)
	}

	res, spec, err := s.bind(name, record)
	if err != nil {
		return nil, err
	}

	distantID, err := record.Get(spec.DistantID)
	if err != nil {
		return nil, fmt.Errorf("reading %s of record: %w", spec.DistantID, err)
	}

	if resource.IsEmpty(distantID) {
		return nil, fmt.Errorf("%w: record has no %s, it can not be pulled from %s",
			sforce.ErrMissingRemoteID, spec.DistantID, res)
	}

	payload, err := s.client.Dispatch(ctx, &client.Call{Resource: name, Prepared: res, Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	fields, ok := sforce.Fields(payload)
	if !ok {
		return nil, fmt.Errorf("%w: %s returned %T, expected an object", sforce.ErrParse, res, payload)
	}

	for _, remote := range spec.Fields.RemoteFields() {
		local := spec.Fields[remote]

		value, ok := fields[remote]
		if !ok {
			return nil, fmt.Errorf("%w: field %s is missing from the %s payload", sforce.ErrParse, remote, res)
		}

		value, err = spec.LocalValue(remote, value)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", remote, err)
		}

		err = record.Set(local, value)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", local, err)
		}
	}

	if options.Save {
		err = record.Save(ctx)
		if err != nil {
			return nil, fmt.Errorf("saving pulled record: %w", err)
		}
	}

	return payload, nil
}

// Push sends the mapped fields of record. A record with a remote id is
// updated with PATCH; otherwise it is created with POST and the returned id is
// stored on the record, which is then saved.
func (s *Syncer) Push(ctx context.Context, name string, record sforce.Record) (sforce.Payload, error) {
	res, spec, err := s.bind(name, record)
	if err != nil {
		return nil, err
	}

	data, err := remoteFields(spec, record)
	if err != nil {
		return nil, err
	}

	distantID, err := record.Get(spec.DistantID)
	if err != nil {
		return nil, fmt.Errorf("reading %s of record: %w", spec.DistantID, err)
	}

	if !resource.IsEmpty(distantID) {
		return s.client.Dispatch(ctx, &client.Call{Resource: name, Prepared: res, Method: http.MethodPatch, Data: data})
	}

	payload, err := s.client.Dispatch(ctx, &client.Call{Resource: name, Prepared: res, Method: http.MethodPost, Data: data})
	if err != nil {
		return nil, err
	}

	fields, _ := sforce.Fields(payload)

	id, ok := fields["id"]
	if !ok || resource.IsEmpty(id) {
		return nil, fmt.Errorf("%w: %s created an object without returning its id", sforce.ErrParse, res)
	}

	err = record.Set(spec.DistantID, id)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", spec.DistantID, err)
	}

	err = record.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("saving pushed record: %w", err)
	}

	return payload, nil
}

func remoteFields(spec *sforce.ModelSpec, record sforce.Record) (map[string]any, error) {
	data := make(map[string]any, len(spec.Fields))

	for _, remote := range spec.Fields.RemoteFields() {
		local := spec.Fields[remote]

		value, err := record.Get(local)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", local, err)
		}

		value, err = spec.RemoteValue(remote, resource.Deref(value))
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", remote, err)
		}

		data[remote] = value
	}

	return data, nil
}

// Client is an API client that can also synchronize records.
type Client struct {
	*client.Client
	*Syncer
}

var _ sforce.ModelClient = (*Client)(nil)

// NewClient wraps c with a Syncer.
func NewClient(c *client.Client) *Client {
	return &Client{Client: c, Syncer: New(c)}
}
