// Package registry selects a ports.MappingStore backend by name. Backend
// packages register themselves from init(); importing a backend package is
// what makes its kind available.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/corey/colrecon/internal/ports"
)

// ErrUnknownBackend is returned by Open for an unregistered kind.
var ErrUnknownBackend = errors.New("unknown store backend")

// Factory opens a store from a backend-specific DSN (a file path for the
// embedded backends, a connection string for Postgres).
type Factory func(ctx context.Context, dsn string) (ports.MappingStore, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// twice panics so backend selection is never ambiguous.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("registry: Register called with empty kind")
	}
	if f == nil {
		panic("registry: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("registry: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Open constructs the store registered under kind.
func Open(ctx context.Context, kind, dsn string) (ports.MappingStore, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: empty kind", ErrUnknownBackend)
	}

	mu.RLock()
	f := factories[kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, kind, Kinds())
	}
	return f(ctx, dsn)
}

// Kinds lists registered backends in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
