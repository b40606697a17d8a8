package sforce

import (
	"context"
	"net/http"
	"slices"
	"sort"
	"time"

	"github.com/iancoleman/strcase"
)

// Params are the values substituted into a resource path template.
// Values are usually strings; date-range resources also accept time.Time.
type Params map[string]any

// Clone returns a shallow copy so a resource can mutate its own params.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}

	return out
}

// Payload is a parsed response body: map[string]any or []any for JSON
// resources, string for plain-text ones.
type Payload any

// Fields returns the payload as a JSON object.
func Fields(payload Payload) (map[string]any, bool) {
	fields, ok := payload.(map[string]any)

	return fields, ok
}

// FirstFields returns the payload as a JSON object, looking at the first
// element when the payload is a list.
func FirstFields(payload Payload) (map[string]any, bool) {
	if list, ok := payload.([]any); ok {
		if len(list) == 0 {
			return nil, false
		}

		payload = list[0]
	}

	return Fields(payload)
}

// Format is the content format of a resource.
type Format int

const (
	// FormatText sends data through fmt and returns the raw body.
	FormatText Format = iota
	// FormatJSON encodes and decodes JSON.
	FormatJSON
)

// String implements fmt.Stringer.
func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}

	return "text"
}

// Addressing selects how a resource renders its path.
type Addressing int

const (
	// AddressPlain renders the template as is.
	AddressPlain Addressing = iota
	// AddressDateRange requires a start and an end date.
	AddressDateRange
	// AddressInstance requires an id.
	AddressInstance
	// AddressExternalID requires a field name and a field value.
	AddressExternalID
	// AddressModel derives the id from a bound local record.
	AddressModel
	// AddressCollection addresses a collection, or one of its members when
	// an id is given.
	AddressCollection
)

// String implements fmt.Stringer.
func (a Addressing) String() string {
	switch a {
	case AddressDateRange:
		return "date-range"
	case AddressInstance:
		return "instance"
	case AddressExternalID:
		return "external-id"
	case AddressModel:
		return "model"
	case AddressCollection:
		return "collection"
	default:
		return "plain"
	}
}

// Default values shared by classes.
const (
	DefaultErrorKey       = "error"
	DefaultTimeout        = 1 * time.Second
	DefaultDateStartParam = "start"
	DefaultDateEndParam   = "end"
	DefaultDistantID      = "dist_id"
	SubResourceSeparator  = "."
)

// AllMethods is the verb set of a resource that does not restrict itself.
var AllMethods = []string{
	http.MethodHead, http.MethodGet, http.MethodPost,
	http.MethodPut, http.MethodPatch, http.MethodDelete,
}

// InstanceMethods is the verb set of single-object resources.
var InstanceMethods = []string{
	http.MethodHead, http.MethodGet, http.MethodPatch, http.MethodDelete,
}

// PostProcessFunc runs after a successful call with the method and payload.
type PostProcessFunc func(ctx context.Context, method string, payload Payload) error

// Transform converts one field value between its local and remote forms.
type Transform func(value any) (any, error)

// FieldMap maps remote field names to local attribute names.
type FieldMap map[string]string

// RemoteFields returns the remote field names in a stable order.
func (m FieldMap) RemoteFields() []string {
	fields := make([]string, 0, len(m))
	for remote := range m {
		fields = append(fields, remote)
	}

	sort.Strings(fields)

	return fields
}

// FieldMapFromAttrs builds a field map whose remote names are the CamelCase
// form of the local snake_case attributes (first_name -> FirstName).
func FieldMapFromAttrs(attrs ...string) FieldMap {
	m := make(FieldMap, len(attrs))
	for _, attr := range attrs {
		m[strcase.ToCamel(attr)] = attr
	}

	return m
}

// ModelSpec binds a resource class to local records.
type ModelSpec struct {
	// DistantID is the local attribute holding the remote identifier.
	DistantID string
	Fields    FieldMap
	// LocalTransforms convert remote values before they are set locally,
	// keyed by remote field. Missing entries are identity.
	LocalTransforms map[string]Transform
	// RemoteTransforms convert local values before they are sent, keyed by
	// remote field. Missing entries are identity.
	RemoteTransforms map[string]Transform
}

// LocalValue converts a remote value for field into its local form.
func (m *ModelSpec) LocalValue(field string, value any) (any, error) {
	if fn, ok := m.LocalTransforms[field]; ok && fn != nil {
		return fn(value)
	}

	return value, nil
}

// RemoteValue converts a local value for field into its remote form.
func (m *ModelSpec) RemoteValue(field string, value any) (any, error) {
	if fn, ok := m.RemoteTransforms[field]; ok && fn != nil {
		return fn(value)
	}

	return value, nil
}

// Class is a resource behavior variant. Tree nodes reference classes either
// directly or by their registry key; every node gets its own copy.
type Class struct {
	Path       string
	Methods    []string
	ErrorKey   string
	Timeout    time.Duration
	Format     Format
	Addressing Addressing

	// Date range parameter names, defaulting to start and end.
	DateStartParam string
	DateEndParam   string

	Model       *ModelSpec
	PostProcess PostProcessFunc
}

// WithDefaults fills zero fields with the package defaults.
func (c Class) WithDefaults() Class {
	if len(c.Methods) == 0 {
		switch c.Addressing {
		case AddressInstance, AddressExternalID:
			c.Methods = slices.Clone(InstanceMethods)
		default:
			c.Methods = slices.Clone(AllMethods)
		}
	}

	if c.Path == "" {
		switch c.Addressing {
		case AddressInstance:
			c.Path = "{id}/"
		case AddressExternalID:
			c.Path = "{fieldname}/{fieldvalue}/"
		}
	}

	if c.ErrorKey == "" {
		c.ErrorKey = DefaultErrorKey
	}

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.DateStartParam == "" {
		c.DateStartParam = DefaultDateStartParam
	}

	if c.DateEndParam == "" {
		c.DateEndParam = DefaultDateEndParam
	}

	if c.Model != nil && c.Model.DistantID == "" {
		model := *c.Model
		model.DistantID = DefaultDistantID
		c.Model = &model
	}

	return c
}

// Allows reports whether method is in the class verb set.
func (c Class) Allows(method string) bool {
	return slices.Contains(c.Methods, method)
}

// Node is one entry of a declarative resource tree.
type Node struct {
	Path string `json:"path,omitempty" mapstructure:"path" yaml:"path,omitempty"`
	// Class is a class registry key.
	Class string `json:"class,omitempty" mapstructure:"class" yaml:"class,omitempty"`
	// ClassRef takes precedence over Class when set programmatically.
	ClassRef  *Class `json:"-" mapstructure:"-" yaml:"-"`
	Resources Tree   `json:"resources,omitempty" mapstructure:"resources" yaml:"resources,omitempty"`
}

// Tree maps resource names to nodes.
type Tree map[string]Node

// Names returns the top level names in a stable order.
func (t Tree) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Merge returns a new tree holding t's nodes overlaid with other's.
func (t Tree) Merge(other Tree) Tree {
	out := make(Tree, len(t)+len(other))
	for name, node := range t {
		out[name] = node
	}

	for name, node := range other {
		out[name] = node
	}

	return out
}

// Record is a local persisted object that can be synchronized with a
// model-backed resource.
type Record interface {
	Get(attr string) (any, error)
	Set(attr string, value any) error
	Save(ctx context.Context) error
}
