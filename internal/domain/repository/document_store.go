package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"time"
)

// Document es la unidad de persistencia de cualquier recurso: identidad, payload JSON y timestamps.
// El store asigna el orden por CreatedAt; el payload nunca incluye id ni timestamps.
type Document struct {
	ID        string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RelatedSearch describe un predicado tipo join: el documento coincide si el registro
// referenciado por Field (en la colección Target) contiene el keyword en alguno de Fields.
type RelatedSearch struct {
	Field  string
	Target string
	Fields []string
}

// Query parámetros de búsqueda de una colección.
// Limit = 0 devuelve toda la colección filtrada.
type Query struct {
	Keyword       string
	SearchFields  []string
	RelatedSearch []RelatedSearch
	Filters       map[string]string
	Limit         int
	Offset        int
}

// CollectionSpec describe una colección para crear tablas e índices únicos.
type CollectionSpec struct {
	Name   string
	Unique []string
}

// Collection define el puerto de persistencia de una colección de documentos (DIP).
// Get devuelve nil, nil cuando el documento no existe (misma convención que los repos SQL).
type Collection interface {
	Name() string
	Insert(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	Update(ctx context.Context, doc *Document) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteWhere(ctx context.Context, field, value string) (int, error)
	Find(ctx context.Context, q Query) ([]*Document, int, error)
	FindIn(ctx context.Context, field string, values []string) ([]*Document, error)
	Exists(ctx context.Context, field, value, excludeID string) (bool, error)
}

// Store agrupa las colecciones y la transaccionalidad del backend.
type Store interface {
	Collection(name string) Collection
	Migrate(ctx context.Context, specs ...CollectionSpec) error
	RunInTx(ctx context.Context, fn func(tx Store) error) error
	Close()
}

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidIdentifier indica si un nombre de campo o tabla se puede interpolar en SQL.
func ValidIdentifier(s string) bool { return identRe.MatchString(s) }

// TableName convierte el nombre de un recurso ("customer-groups") en tabla ("customer_groups").
func TableName(collection string) string {
	b := []byte(collection)
	for i, c := range b {
		if c == '-' {
			b[i] = '_'
		}
	}
	return string(b)
}
