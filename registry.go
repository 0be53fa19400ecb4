package store

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Factory builds the handler for one entity. opts carry the registry's
// logger and column conventions.
type Factory func(backend Backend, entity, table string, opts ...HandlerOption) *Handler

// Registry lazily builds one Handler per logical entity name and returns the
// same instance on every later request. It grows monotonically and is safe
// for concurrent use.
type Registry struct {
	backend  Backend
	resolver *Resolver
	logger   *slog.Logger
	entities EntityConfig

	mu        sync.Mutex
	handlers  map[string]*Handler
	factories map[string]Factory
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger shared by the resolver and handlers.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolver replaces the name resolver.
func WithResolver(resolver *Resolver) RegistryOption {
	return func(r *Registry) {
		r.resolver = resolver
	}
}

// WithEntityConfig applies column conventions, table overrides and the
// hard-delete list.
func WithEntityConfig(cfg EntityConfig) RegistryOption {
	return func(r *Registry) {
		r.entities = cfg
	}
}

// NewRegistry creates an empty registry over backend.
func NewRegistry(backend Backend, opts ...RegistryOption) *Registry {
	r := &Registry{
		backend:   backend,
		logger:    slog.Default(),
		entities:  DefaultConfig().Entities,
		handlers:  make(map[string]*Handler),
		factories: make(map[string]Factory),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		r.resolver = NewResolver(r.logger, r.entities.Tables)
	}
	return r
}

// Resolver returns the registry's name resolver.
func (r *Registry) Resolver() *Resolver { return r.resolver }

// Register installs a custom factory for entity. It fails once the entity's
// handler has been built.
func (r *Registry) Register(entity string, f Factory) error {
	if strings.TrimSpace(entity) == "" {
		return NewValidationErrorForField("entity", entity, "entity name cannot be empty")
	}
	if f == nil {
		return NewValidationErrorForField("factory", entity, "factory cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, built := r.handlers[entity]; built {
		return fmt.Errorf("handler for %s already built: %w", entity, ErrInvalidInput)
	}
	r.factories[entity] = f
	return nil
}

// Handler returns the handler for entity, building it on first use.
func (r *Registry) Handler(entity string) (*Handler, error) {
	if strings.TrimSpace(entity) == "" {
		return nil, NewValidationErrorForField("entity", entity, "entity name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handlers[entity]; ok {
		return h, nil
	}

	factory := r.factories[entity]
	if factory == nil {
		factory = NewHandler
	}
	h := factory(r.backend, entity, r.resolver.Resolve(entity), r.handlerOptions(entity)...)
	if h == nil {
		return nil, fmt.Errorf("factory for %s returned no handler: %w", entity, ErrInvalidInput)
	}
	r.handlers[entity] = h
	r.logger.Debug("built entity handler", "entity", entity, "table", h.Table())
	return h, nil
}

// MustHandler is Handler for names known to be valid.
func (r *Registry) MustHandler(entity string) *Handler {
	h, err := r.Handler(entity)
	if err != nil {
		panic(err)
	}
	return h
}

// Lookup returns an already built handler without building one.
func (r *Registry) Lookup(entity string) (*Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[entity]
	return h, ok
}

// Entities returns the names of built handlers, sorted.
func (r *Registry) Entities() []string {
	r.mu.Lock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)
	return names
}

func (r *Registry) handlerOptions(entity string) []HandlerOption {
	opts := []HandlerOption{
		WithLogger(r.logger),
		WithColumns(r.entities.IDColumn, r.entities.SoftDeleteColumn, r.entities.DeletedAtColumn),
	}
	for _, name := range r.entities.HardDelete {
		if name == entity {
			opts = append(opts, WithoutSoftDelete())
			break
		}
	}
	return opts
}
