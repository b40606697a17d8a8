// Package resource implements resource types and the request/response
// lifecycle of a single resource call.
package resource

import (
	"slices"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Type is a resource class specialized for one tree node: it carries the
// node's full dotted name and its path with every ancestor path prepended.
type Type struct {
	sforce.Class

	Name   string
	Parent *Type
}

// NewType specializes class for name. The class is copied so nodes sharing a
// class never share a name, a path or a verb slice.
func NewType(name string, class sforce.Class, parent *Type) *Type {
	class = class.WithDefaults()
	class.Methods = slices.Clone(class.Methods)

	return &Type{
		Class:  class,
		Name:   name,
		Parent: parent,
	}
}

// Info describes the type.
func (t *Type) Info() sforce.ResourceInfo {
	return sforce.ResourceInfo{
		Name:       t.Name,
		Path:       t.Path,
		Methods:    slices.Clone(t.Methods),
		Format:     t.Format,
		Addressing: t.Addressing,
	}
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	if t.Name == "" {
		return "<raw " + t.Path + ">"
	}

	return t.Name
}
