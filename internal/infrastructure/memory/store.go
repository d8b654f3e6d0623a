// Package memory implementa el puerto repository.Store en memoria: colecciones thread-safe
// de documentos JSON con orden de inserción. Se usa en desarrollo (STORE_DRIVER=memory) y en tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.Store = (*Store)(nil)

// Store agrupa las colecciones en memoria por nombre.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

// NewStore construye un store vacío.
func NewStore() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Collection devuelve (o crea) la colección con ese nombre.
func (s *Store) Collection(name string) repository.Collection {
	return s.collection(name)
}

func (s *Store) collection(name string) *Collection {
	s.mu.RLock()
	c, ok := s.collections[name]
	s.mu.RUnlock()
	if ok {
		return c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.collections[name]; ok {
		return c
	}
	c = &Collection{name: name, store: s, items: make(map[string]*entry)}
	s.collections[name] = c
	return c
}

// Migrate registra las colecciones y sus campos únicos.
func (s *Store) Migrate(_ context.Context, specs ...repository.CollectionSpec) error {
	for _, spec := range specs {
		c := s.collection(spec.Name)
		c.mu.Lock()
		c.unique = append([]string(nil), spec.Unique...)
		c.mu.Unlock()
	}
	return nil
}

// RunInTx ejecuta fn sobre el mismo store: en memoria no hay rollback.
func (s *Store) RunInTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

// Close no hace nada; existe para cumplir el puerto.
func (s *Store) Close() {}

type entry struct {
	doc    repository.Document
	fields map[string]any
	seq    uint64
}

// Collection colección de documentos en memoria.
type Collection struct {
	mu     sync.RWMutex
	name   string
	store  *Store
	items  map[string]*entry
	unique []string
	seq    uint64
}

func (c *Collection) Name() string { return c.name }

// Insert guarda un documento nuevo. Respeta los campos únicos declarados en Migrate.
func (c *Collection) Insert(ctx context.Context, doc *repository.Document) error {
	fields, err := repository.DecodeFields(doc.Data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[doc.ID]; exists {
		return &domain.DuplicateError{Collection: c.name, Field: "id"}
	}
	if field, dup := c.violatesUnique(fields, doc.ID); dup {
		return &domain.DuplicateError{Collection: c.name, Field: field}
	}
	c.seq++
	c.items[doc.ID] = &entry{doc: cloneDoc(doc), fields: fields, seq: c.seq}
	return nil
}

// Get obtiene un documento por ID (nil, nil si no existe).
func (c *Collection) Get(_ context.Context, id string) (*repository.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[id]
	if !ok {
		return nil, nil
	}
	d := cloneDoc(&e.doc)
	return &d, nil
}

// Update reemplaza el payload conservando la posición de inserción.
func (c *Collection) Update(_ context.Context, doc *repository.Document) (bool, error) {
	fields, err := repository.DecodeFields(doc.Data)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[doc.ID]
	if !ok {
		return false, nil
	}
	if field, dup := c.violatesUnique(fields, doc.ID); dup {
		return false, &domain.DuplicateError{Collection: c.name, Field: field}
	}
	created := e.doc.CreatedAt
	e.doc = cloneDoc(doc)
	e.doc.CreatedAt = created
	e.fields = fields
	return true, nil
}

// Delete elimina un documento. Devuelve true si existía.
func (c *Collection) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return false, nil
	}
	delete(c.items, id)
	return true, nil
}

// DeleteWhere elimina todos los documentos cuyo campo coincide con value.
func (c *Collection) DeleteWhere(_ context.Context, field, value string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.items {
		if v, ok := repository.FieldText(e.fields, field); ok && v == value {
			delete(c.items, id)
			n++
		}
	}
	return n, nil
}

// Find filtra, ordena (más recientes primero) y pagina.
func (c *Collection) Find(ctx context.Context, q repository.Query) ([]*repository.Document, int, error) {
	c.mu.RLock()
	candidates := make([]entry, 0, len(c.items))
	for _, e := range c.items {
		if matchesFilters(e.fields, q.Filters) {
			candidates = append(candidates, *e)
		}
	}
	c.mu.RUnlock()

	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))
	matched := candidates
	if keyword != "" {
		matched = candidates[:0:0]
		for _, e := range candidates {
			if c.matchesKeyword(ctx, e.fields, keyword, q) {
				matched = append(matched, e)
			}
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.doc.CreatedAt.Equal(b.doc.CreatedAt) {
			return a.doc.CreatedAt.After(b.doc.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(matched)
	start, end := 0, total
	if q.Limit > 0 {
		start = min(q.Offset, total)
		end = min(start+q.Limit, total)
	}
	out := make([]*repository.Document, 0, end-start)
	for i := range matched[start:end] {
		d := cloneDoc(&matched[start+i].doc)
		out = append(out, &d)
	}
	return out, total, nil
}

// FindIn devuelve los documentos cuyo campo (o "id") está en values.
func (c *Collection) FindIn(_ context.Context, field string, values []string) ([]*repository.Document, error) {
	if len(values) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var hits []*entry
	for id, e := range c.items {
		key := id
		if field != "id" {
			v, ok := repository.FieldText(e.fields, field)
			if !ok {
				continue
			}
			key = v
		}
		if _, ok := set[key]; ok {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	out := make([]*repository.Document, 0, len(hits))
	for _, e := range hits {
		d := cloneDoc(&e.doc)
		out = append(out, &d)
	}
	return out, nil
}

// Exists indica si algún documento distinto de excludeID tiene field == value.
func (c *Collection) Exists(_ context.Context, field, value, excludeID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if field == "id" {
		_, ok := c.items[value]
		return ok && value != excludeID, nil
	}
	for id, e := range c.items {
		if id == excludeID {
			continue
		}
		if v, ok := repository.FieldText(e.fields, field); ok && v == value {
			return true, nil
		}
	}
	return false, nil
}

// violatesUnique se llama con c.mu tomado. El texto vacío no cuenta como valor.
func (c *Collection) violatesUnique(fields map[string]any, selfID string) (string, bool) {
	for _, f := range c.unique {
		v, ok := repository.FieldText(fields, f)
		if !ok || v == "" {
			continue
		}
		for id, e := range c.items {
			if id == selfID {
				continue
			}
			if other, ok := repository.FieldText(e.fields, f); ok && other == v {
				return f, true
			}
		}
	}
	return "", false
}

func (c *Collection) matchesKeyword(ctx context.Context, fields map[string]any, keyword string, q repository.Query) bool {
	for _, f := range q.SearchFields {
		if v, ok := repository.FieldText(fields, f); ok && strings.Contains(strings.ToLower(v), keyword) {
			return true
		}
	}
	for _, rs := range q.RelatedSearch {
		ref, ok := repository.FieldText(fields, rs.Field)
		if !ok || ref == "" {
			continue
		}
		target := c.store.collection(rs.Target)
		if target == c {
			continue
		}
		doc, err := target.Get(ctx, ref)
		if err != nil || doc == nil {
			continue
		}
		related, err := repository.DecodeFields(doc.Data)
		if err != nil {
			continue
		}
		for _, f := range rs.Fields {
			if v, ok := repository.FieldText(related, f); ok && strings.Contains(strings.ToLower(v), keyword) {
				return true
			}
		}
	}
	return false
}

func matchesFilters(fields map[string]any, filters map[string]string) bool {
	for k, want := range filters {
		got, ok := repository.FieldText(fields, k)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cloneDoc(d *repository.Document) repository.Document {
	out := *d
	out.Data = append([]byte(nil), d.Data...)
	return out
}
