// Package uid interns tag and mark names so that they can be compared by
// identity.
//
// A Registry is owned by whoever creates text engines (normally one per
// process) and is handed to each engine explicitly. Tests create their own
// registries so that names never leak between them.
package uid

import "sync"

// UID is an interned string. Two UIDs obtained from the same Registry are
// equal if and only if their strings are equal.
type UID struct {
	p *string
}

// String returns the interned string.
func (u UID) String() string {
	if u.p == nil {
		return ""
	}
	return *u.p
}

// IsZero reports whether u was never interned.
func (u UID) IsZero() bool {
	return u.p == nil
}

// Registry interns strings. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	names map[string]*string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]*string)}
}

// Intern returns the UID for s, creating it on first use.
func (r *Registry) Intern(s string) UID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.names[s]; ok {
		return UID{p: p}
	}
	p := new(string)
	*p = s
	r.names[s] = p
	return UID{p: p}
}

// Lookup returns the UID for s if it has been interned.
func (r *Registry) Lookup(s string) (UID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.names[s]
	return UID{p: p}, ok
}

// Len returns the number of interned strings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
