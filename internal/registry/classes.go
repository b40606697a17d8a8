// Package registry resolves class keys and expands declarative resource
// trees into a flat namespace of resource types.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Built-in class keys.
const (
	ClassBase       = "base"
	ClassJSON       = "json"
	ClassDateRange  = "daterange"
	ClassInstance   = "instance"
	ClassExternalID = "external_id"
	ClassCollection = "collection"
)

// Classes maps string keys to resource classes.
type Classes struct {
	mu      sync.RWMutex
	classes map[string]sforce.Class
}

// NewClasses returns a class set holding the generic built-in classes.
func NewClasses() *Classes {
	c := &Classes{classes: make(map[string]sforce.Class)}

	c.Register(ClassBase, sforce.Class{})
	c.Register(ClassJSON, sforce.Class{Format: sforce.FormatJSON})
	c.Register(ClassDateRange, sforce.Class{Addressing: sforce.AddressDateRange})
	c.Register(ClassInstance, sforce.Class{Addressing: sforce.AddressInstance})
	c.Register(ClassExternalID, sforce.Class{Addressing: sforce.AddressExternalID})
	c.Register(ClassCollection, sforce.Class{Addressing: sforce.AddressCollection})

	return c
}

// Register adds or replaces the class stored under key.
func (c *Classes) Register(key string, class sforce.Class) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.classes[key] = class
}

// RegisterAll registers every entry of classes.
func (c *Classes) RegisterAll(classes map[string]sforce.Class) {
	for key, class := range classes {
		c.Register(key, class)
	}
}

// Lookup returns the class stored under key.
func (c *Classes) Lookup(key string) (sforce.Class, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	class, ok := c.classes[key]
	if !ok {
		return sforce.Class{}, fmt.Errorf("%w: unknown resource class %q", sforce.ErrConfiguration, key)
	}

	return class, nil
}

// Keys returns the registered keys in a stable order.
func (c *Classes) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.classes))
	for key := range c.classes {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
