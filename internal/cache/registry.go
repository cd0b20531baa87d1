package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the namespaces built at startup under stable names so
// administrative code can reach them without knowing their value types
type Registry struct {
	mu      sync.RWMutex
	handles map[string]Handle
	derived map[string][]derivedKey
}

// derivedKey is an entry computed from another namespace's entries
type derivedKey struct {
	namespace string
	key       string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]Handle),
		derived: make(map[string][]derivedKey),
	}
}

// Register adds h under name. It rejects duplicate names and prefixes that
// would let one namespace's Clear reach into another.
func (r *Registry) Register(name string, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[name]; exists {
		return fmt.Errorf("cache namespace %q already registered", name)
	}
	for other, existing := range r.handles {
		if strings.HasPrefix(h.Prefix(), existing.Prefix()) || strings.HasPrefix(existing.Prefix(), h.Prefix()) {
			return fmt.Errorf("cache namespace %q prefix %q overlaps %q prefix %q",
				name, h.Prefix(), other, existing.Prefix())
		}
	}

	r.handles[name] = h
	return nil
}

// Lookup returns the namespace registered under name
func (r *Registry) Lookup(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[name]
	return h, ok
}

// Names lists registered namespaces in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Derive records that key in namespace dependent is built from the entries
// of namespace source. Removing or clearing through the registry drops it too.
func (r *Registry) Derive(source, dependent, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[source]; !ok {
		return fmt.Errorf("cache namespace %q not registered", source)
	}
	if _, ok := r.handles[dependent]; !ok {
		return fmt.Errorf("cache namespace %q not registered", dependent)
	}
	r.derived[source] = append(r.derived[source], derivedKey{namespace: dependent, key: key})
	return nil
}

// Remove deletes key from the named namespace along with its derived keys.
// It reports false for an unknown namespace.
func (r *Registry) Remove(ctx context.Context, name, key string) bool {
	h, ok := r.Lookup(name)
	if !ok {
		return false
	}
	h.Remove(ctx, key)
	r.dropDerived(ctx, name)
	return true
}

// Clear empties the named namespace along with its derived keys.
// It reports false for an unknown namespace.
func (r *Registry) Clear(ctx context.Context, name string) bool {
	h, ok := r.Lookup(name)
	if !ok {
		return false
	}
	h.Clear(ctx)
	r.dropDerived(ctx, name)
	return true
}

func (r *Registry) dropDerived(ctx context.Context, name string) {
	r.mu.RLock()
	deps := append([]derivedKey(nil), r.derived[name]...)
	r.mu.RUnlock()

	for _, d := range deps {
		if h, ok := r.Lookup(d.namespace); ok {
			h.Remove(ctx, d.key)
		}
	}
}
