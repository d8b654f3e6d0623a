// Package resource implementa el contrato CRUD genérico (listar, ver, crear, actualizar, eliminar)
// que comparten todos los recursos del back-office. Cada recurso es un Config[T]: el esquema de
// campos vive en los tags `json`/`validate` de T y el resto (búsqueda, unicidad, referencias,
// hidratación, política de borrado) es configuración declarativa.
package resource

import (
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// RelationKind tipo de relación para hidratar respuestas.
type RelationKind int

const (
	// BelongsTo: Field del registro guarda el id del relacionado (o null).
	BelongsTo RelationKind = iota
	// BelongsToMany: Field del registro es un arreglo de ids.
	BelongsToMany
	// HasMany: Field es la llave foránea en la colección Target que apunta a este registro.
	HasMany
)

// Relation relación hidratable. Name es la clave con la que aparece en la respuesta.
type Relation struct {
	Name   string
	Kind   RelationKind
	Field  string
	Target string
}

// Ref regla de existencia: los valores de Field deben ser ids existentes en Target.
type Ref struct {
	Field  string
	Target string
}

// DeletePolicy qué hacer con los dependientes al eliminar un registro.
type DeletePolicy int

const (
	// Orphan deja los dependientes con la llave colgando.
	Orphan DeletePolicy = iota
	// Restrict rechaza el borrado si hay dependientes (409).
	Restrict
	// Cascade elimina los dependientes en la misma transacción.
	Cascade
)

// Dependent colección que referencia a este recurso mediante Field.
type Dependent struct {
	Target string
	Field  string
	Policy DeletePolicy
}

// Config definición de un recurso.
type Config[T any] struct {
	Name          string // ruta y colección: "customers", "tax-rates"
	Label         string // plural legible para mensajes: "clientes"
	Search        []string
	SearchRelated []repository.RelatedSearch
	Filters       []string
	Unique        []string
	Refs          []Ref
	Relations     []Relation
	ListWith      []string // relaciones que también se hidratan en el listado
	Dependents    []Dependent
	// Prepare completa valores por defecto antes de validar.
	Prepare func(rec *T, creating bool)
}

func (c *Config[T]) relation(name string) (Relation, bool) {
	for _, r := range c.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

func (c *Config[T]) listRelations() []Relation {
	out := make([]Relation, 0, len(c.ListWith))
	for _, name := range c.ListWith {
		if r, ok := c.relation(name); ok {
			out = append(out, r)
		}
	}
	return out
}

// check valida que los nombres de campos sean identificadores seguros y que las
// colecciones referenciadas existan en el registro.
func (c *Config[T]) check(known func(string) bool) error {
	if c.Name == "" {
		return fmt.Errorf("recurso sin nombre")
	}
	fields := append([]string{}, c.Search...)
	fields = append(fields, c.Filters...)
	fields = append(fields, c.Unique...)
	for _, r := range c.Refs {
		fields = append(fields, r.Field)
		if !known(r.Target) {
			return fmt.Errorf("%s: referencia a colección desconocida %q", c.Name, r.Target)
		}
	}
	for _, r := range c.Relations {
		fields = append(fields, r.Field)
		if !known(r.Target) {
			return fmt.Errorf("%s: relación %q a colección desconocida %q", c.Name, r.Name, r.Target)
		}
	}
	for _, rs := range c.SearchRelated {
		fields = append(fields, rs.Field)
		fields = append(fields, rs.Fields...)
		if !known(rs.Target) {
			return fmt.Errorf("%s: búsqueda relacionada a colección desconocida %q", c.Name, rs.Target)
		}
	}
	for _, d := range c.Dependents {
		fields = append(fields, d.Field)
		if !known(d.Target) {
			return fmt.Errorf("%s: dependiente desconocido %q", c.Name, d.Target)
		}
	}
	for _, name := range c.ListWith {
		if _, ok := c.relation(name); !ok {
			return fmt.Errorf("%s: ListWith %q no es una relación declarada", c.Name, name)
		}
	}
	for _, f := range fields {
		if !repository.ValidIdentifier(f) {
			return fmt.Errorf("%s: campo inválido %q", c.Name, f)
		}
	}
	return nil
}
