package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Registry conjunto de recursos expuestos sobre un mismo store.
type Registry struct {
	store     repository.Store
	endpoints []Endpoint
	byName    map[string]Endpoint
	v         *fieldValidator
	now       func() time.Time
	newID     func() string
}

// Option personaliza el registro (útil en tests).
type Option func(*Registry)

// WithClock reemplaza time.Now para timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator reemplaza la generación de UUIDs.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// NewRegistry construye un registro vacío sobre store.
func NewRegistry(store repository.Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		byName: make(map[string]Endpoint),
		v:      defaultValidator(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register agrega un recurso y devuelve su servicio tipado.
// Registrar dos veces el mismo nombre es un error de programación.
func Register[T any](r *Registry, cfg Config[T]) *Service[T] {
	if _, dup := r.byName[cfg.Name]; dup {
		panic(fmt.Sprintf("resource: recurso %q registrado dos veces", cfg.Name))
	}
	svc := &Service[T]{cfg: cfg, store: r.store, v: r.v, now: r.now, newID: r.newID}
	r.endpoints = append(r.endpoints, svc)
	r.byName[cfg.Name] = svc
	return svc
}

// Endpoints recursos en orden de registro.
func (r *Registry) Endpoints() []Endpoint { return r.endpoints }

// Lookup busca un recurso por nombre de ruta.
func (r *Registry) Lookup(name string) (Endpoint, bool) {
	ep, ok := r.byName[name]
	return ep, ok
}

// Store store subyacente.
func (r *Registry) Store() repository.Store { return r.store }

// Migrate valida las configuraciones (campos y colecciones referenciadas) y prepara el store.
func (r *Registry) Migrate(ctx context.Context) error {
	known := func(name string) bool {
		_, ok := r.byName[name]
		return ok
	}
	specs := make([]repository.CollectionSpec, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		if err := ep.checkConfig(known); err != nil {
			return err
		}
		specs = append(specs, ep.collectionSpec())
	}
	if err := r.store.Migrate(ctx, specs...); err != nil {
		return fmt.Errorf("migrar store: %w", err)
	}
	return nil
}
