// Package container implements the Dependency Container (P): a process-wide
// registry keyed by type (with an optional name fallback for multiple
// bindings of the same type, e.g. master vs replica *sql.DB). Go has no
// async/sync split the way the original runtime does, so the VALUE /
// SYNC_CALL / ASYNC_CALL / SYNC_CONTEXT / ASYNC_CONTEXT factory kinds
// collapse to two idiomatic Go shapes: a plain value, and a factory func
// that may optionally return a release closure for scoped resources. No
// pack repo carries a DI container of this shape, so the registry and its
// generation counter are original.
package container

import (
	"fmt"
	"reflect"
	"sync"
)

// Kind distinguishes how a binding produces its value.
type Kind int

const (
	// KindValue is a precomputed value, returned as-is on every resolve.
	KindValue Kind = iota
	// KindFactory calls Factory() once per Resolve call (no caching).
	KindFactory
	// KindScoped calls Factory() once per scope (see Scope) and releases
	// the result via the returned closure when the scope closes.
	KindScoped
)

type binding struct {
	kind    Kind
	value   any
	factory func() (any, func(), error)
}

// Container is the process-wide registry. Safe for concurrent use.
type Container struct {
	mu         sync.RWMutex
	bindings   map[key]binding
	generation uint64
}

type key struct {
	t    reflect.Type
	name string
}

func New() *Container {
	return &Container{bindings: make(map[key]binding)}
}

func keyFor(t reflect.Type, name string) key {
	return key{t: t, name: name}
}

// BindValue registers a precomputed value for type T (optionally named).
func BindValue[T any](c *Container, value T, name ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[keyFor(reflect.TypeOf((*T)(nil)).Elem(), firstOr(name, ""))] = binding{kind: KindValue, value: value}
}

// BindFactory registers a factory invoked fresh on every Resolve call.
func BindFactory[T any](c *Container, factory func() (T, error), name ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[keyFor(reflect.TypeOf((*T)(nil)).Elem(), firstOr(name, ""))] = binding{
		kind: KindFactory,
		factory: func() (any, func(), error) {
			v, err := factory()
			return v, nil, err
		},
	}
}

// BindScoped registers a factory invoked once per scope, whose return value
// is cached for the scope's lifetime and released when the scope closes.
func BindScoped[T any](c *Container, factory func() (T, func(), error), name ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[keyFor(reflect.TypeOf((*T)(nil)).Elem(), firstOr(name, ""))] = binding{
		kind: KindScoped,
		factory: func() (any, func(), error) {
			v, release, err := factory()
			return v, release, err
		},
	}
}

func firstOr(names []string, def string) string {
	if len(names) > 0 {
		return names[0]
	}
	return def
}

// Reset bumps the generation counter. Scopes record the generation they were
// opened at, but no resolution reads it: Reset clears no scoped cache, and an
// existing Scope keeps its cached values. Every new Scope starts with an
// empty cache, whether or not Reset was called.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

// Resolve fetches type T's binding, calling its factory if needed. For
// KindScoped bindings outside of a Scope, the factory runs and its release
// closure is discarded immediately — callers that need release semantics
// must use Scope.Resolve.
func Resolve[T any](c *Container, name ...string) (T, error) {
	var zero T
	c.mu.RLock()
	b, ok := c.bindings[keyFor(reflect.TypeOf((*T)(nil)).Elem(), firstOr(name, ""))]
	c.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("container: no binding for %T", zero)
	}
	switch b.kind {
	case KindValue:
		return b.value.(T), nil
	default:
		v, _, err := b.factory()
		if err != nil {
			return zero, err
		}
		return v.(T), nil
	}
}

// Scope is a request-scoped resolution cache: each KindScoped binding is
// computed at most once per Scope and released when the Scope closes.
type Scope struct {
	container *Container
	generation uint64
	mu        sync.Mutex
	resolved  map[key]any
	releases  []func()
}

// NewScope opens a scope bound to the container's current generation.
func (c *Container) NewScope() *Scope {
	c.mu.RLock()
	gen := c.generation
	c.mu.RUnlock()
	return &Scope{container: c, generation: gen, resolved: make(map[key]any)}
}

// Resolve2 behaves like the package-level Resolve but caches KindScoped
// bindings for the lifetime of this Scope.
func Resolve2[T any](s *Scope, name ...string) (T, error) {
	var zero T
	k := keyFor(reflect.TypeOf((*T)(nil)).Elem(), firstOr(name, ""))

	s.mu.Lock()
	if cached, ok := s.resolved[k]; ok {
		s.mu.Unlock()
		return cached.(T), nil
	}
	s.mu.Unlock()

	s.container.mu.RLock()
	b, ok := s.container.bindings[k]
	s.container.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("container: no binding for %T", zero)
	}

	switch b.kind {
	case KindValue:
		return b.value.(T), nil
	case KindFactory:
		v, _, err := b.factory()
		if err != nil {
			return zero, err
		}
		return v.(T), nil
	case KindScoped:
		v, release, err := b.factory()
		if err != nil {
			return zero, err
		}
		s.mu.Lock()
		s.resolved[k] = v
		if release != nil {
			s.releases = append(s.releases, release)
		}
		s.mu.Unlock()
		return v.(T), nil
	}
	return zero, fmt.Errorf("container: unknown binding kind for %T", zero)
}

// Close releases every scoped resource resolved during this Scope's
// lifetime, in reverse acquisition order.
func (s *Scope) Close() {
	s.mu.Lock()
	releases := s.releases
	s.releases = nil
	s.mu.Unlock()
	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}
