package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fivetwenty-io/sforce/internal/resource"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/hashicorp/go-multierror"
)

// Registry is the namespace of resource types of one client.
type Registry struct {
	mu           sync.RWMutex
	classes      *Classes
	defaultClass string
	types        map[string]*resource.Type
}

// New creates an empty registry. Nodes without a class use defaultClass.
func New(classes *Classes, defaultClass string) *Registry {
	if classes == nil {
		classes = NewClasses()
	}

	if defaultClass == "" {
		defaultClass = ClassBase
	}

	return &Registry{
		classes:      classes,
		defaultClass: defaultClass,
		types:        make(map[string]*resource.Type),
	}
}

// Classes returns the class set the registry resolves keys against.
func (r *Registry) Classes() *Classes {
	return r.classes
}

// DefaultClass returns the class used by nodes that do not name one.
func (r *Registry) DefaultClass() (sforce.Class, error) {
	return r.classes.Lookup(r.defaultClass)
}

// Build registers every node of tree. Nodes are visited in name order; a
// failing node is skipped with its subtree and all failures are returned.
func (r *Registry) Build(tree sforce.Tree) error {
	var result *multierror.Error

	for _, name := range tree.Names() {
		_, err := r.Add(name, tree[name], nil)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

// Add registers node under name, below parent when it is not nil, then
// recurses into the node's resources. It returns the type created for node.
func (r *Registry) Add(name string, node sforce.Node, parent *resource.Type) (*resource.Type, error) {
	class, err := r.resolveClass(node)
	if err != nil {
		return nil, fmt.Errorf("building resource %s: %w", qualify(name, parent), err)
	}

	class = class.WithDefaults()

	path := node.Path
	if path == "" {
		path = class.Path
	}

	if path == "" {
		path = name + "/"
	}

	if parent != nil {
		name = parent.Name + sforce.SubResourceSeparator + name
		path = parent.Path + path
	}

	class.Path = path
	typ := resource.NewType(name, class, parent)

	err = r.register(typ)
	if err != nil {
		return nil, err
	}

	var result *multierror.Error

	for _, child := range node.Resources.Names() {
		_, err := r.Add(child, node.Resources[child], typ)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	return typ, result.ErrorOrNil()
}

func (r *Registry) resolveClass(node sforce.Node) (sforce.Class, error) {
	if node.ClassRef != nil {
		return *node.ClassRef, nil
	}

	key := node.Class
	if key == "" {
		key = r.defaultClass
	}

	return r.classes.Lookup(key)
}

// register stores typ. Re-registering a name with the same path replaces the
// previous type; a different path is a configuration error.
func (r *Registry) register(typ *resource.Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[typ.Name]; ok && existing.Path != typ.Path {
		return fmt.Errorf("%w: resource %s is already registered with path %q, refusing %q",
			sforce.ErrConfiguration, typ.Name, existing.Path, typ.Path)
	}

	r.types[typ.Name] = typ

	return nil
}

// SetPath overrides the path of a registered type, e.g. to point identity at
// the URL returned with a token.
func (r *Registry) SetPath(name, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, ok := r.types[name]
	if !ok {
		return false
	}

	clone := *typ
	clone.Path = path
	r.types[name] = &clone

	return true
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*resource.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typ, ok := r.types[name]

	return typ, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)

	return ok
}

// Types returns the registered types ordered by name.
func (r *Registry) Types() []*resource.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]*resource.Type, 0, len(r.types))
	for _, typ := range r.types {
		types = append(types, typ)
	}

	sort.Slice(types, func(i, j int) bool {
		return types[i].Name < types[j].Name
	})

	return types
}

// Paths returns the name -> path pairs of the namespace.
func (r *Registry) Paths() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make(map[string]string, len(r.types))
	for name, typ := range r.types {
		paths[name] = typ.Path
	}

	return paths
}

func qualify(name string, parent *resource.Type) string {
	if parent == nil {
		return name
	}

	return parent.Name + sforce.SubResourceSeparator + name
}
