// Package testutil holds fakes shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Reply is a canned transport answer.
type Reply struct {
	StatusCode int
	Body       string
	Err        error
}

// MockSession is a sforce.Session recording every request and answering
// from a queue of replies. When the queue holds a single reply it is reused.
type MockSession struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []*sforce.Request
}

var _ sforce.Session = (*MockSession)(nil)

// NewMockSession creates a session answering with replies in order.
func NewMockSession(replies ...Reply) *MockSession {
	return &MockSession{replies: replies}
}

// Push appends replies to the queue.
func (s *MockSession) Push(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replies = append(s.replies, replies...)
}

// Do implements sforce.Session.
func (s *MockSession) Do(_ context.Context, req *sforce.Request) (*sforce.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)

	if len(s.replies) == 0 {
		return &sforce.Response{StatusCode: http.StatusOK, Body: []byte("{}")}, nil
	}

	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}

	if reply.Err != nil {
		return nil, reply.Err
	}

	return &sforce.Response{StatusCode: reply.StatusCode, Body: []byte(reply.Body)}, nil
}

// Calls returns the number of requests received.
func (s *MockSession) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.Requests)
}

// Last returns the most recent request.
func (s *MockSession) Last() *sforce.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Requests) == 0 {
		return nil
	}

	return s.Requests[len(s.Requests)-1]
}

// MemoryRecord is a map-backed sforce.Record.
type MemoryRecord struct {
	Attrs map[string]any
	Saves int
	// Known lists the attributes Get and Set accept. Empty means any.
	Known []string
}

var _ sforce.Record = (*MemoryRecord)(nil)

// NewMemoryRecord creates a record holding attrs.
func NewMemoryRecord(attrs map[string]any) *MemoryRecord {
	if attrs == nil {
		attrs = map[string]any{}
	}

	return &MemoryRecord{Attrs: attrs}
}

func (r *MemoryRecord) known(attr string) bool {
	if len(r.Known) == 0 {
		return true
	}

	for _, k := range r.Known {
		if k == attr {
			return true
		}
	}

	return false
}

// Get implements sforce.Record.
func (r *MemoryRecord) Get(attr string) (any, error) {
	if !r.known(attr) {
		return nil, fmt.Errorf("%w: %s", sforce.ErrMissingAttribute, attr)
	}

	return r.Attrs[attr], nil
}

// Set implements sforce.Record.
func (r *MemoryRecord) Set(attr string, value any) error {
	if !r.known(attr) {
		return fmt.Errorf("%w: %s", sforce.ErrMissingAttribute, attr)
	}

	r.Attrs[attr] = value

	return nil
}

// Save implements sforce.Record.
func (r *MemoryRecord) Save(context.Context) error {
	r.Saves++

	return nil
}
