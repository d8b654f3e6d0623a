package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Endpoint vista no genérica de un Service[T]; es lo que consume la capa HTTP.
type Endpoint interface {
	Name() string
	Label() string
	Model() reflect.Type
	FilterFields() []string
	RelationList() []Relation
	List(ctx context.Context, p ListParams) (*dto.Pagination, error)
	Show(ctx context.Context, id string) (dto.Item, error)
	Create(ctx context.Context, body []byte) (dto.Item, error)
	Update(ctx context.Context, id string, body []byte) (dto.Item, error)
	Delete(ctx context.Context, id string) error

	collectionSpec() repository.CollectionSpec
	checkConfig(known func(string) bool) error
}

// Record registro tipado, para casos de uso que necesitan los campos como struct (recibos, reportes).
type Record[T any] struct {
	ID        string
	Fields    T
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service implementa el contrato CRUD de un recurso sobre el store de documentos.
type Service[T any] struct {
	cfg   Config[T]
	store repository.Store
	v     *fieldValidator
	now   func() time.Time
	newID func() string
}

var _ Endpoint = (*Service[struct{}])(nil)

func (s *Service[T]) Name() string { return s.cfg.Name }

func (s *Service[T]) Label() string {
	if s.cfg.Label != "" {
		return s.cfg.Label
	}
	return s.cfg.Name
}

// Model tipo Go de los campos del recurso (para describir el esquema).
func (s *Service[T]) Model() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (s *Service[T]) FilterFields() []string { return s.cfg.Filters }

func (s *Service[T]) RelationList() []Relation { return s.cfg.Relations }

func (s *Service[T]) collectionSpec() repository.CollectionSpec {
	return repository.CollectionSpec{Name: s.cfg.Name, Unique: s.cfg.Unique}
}

func (s *Service[T]) checkConfig(known func(string) bool) error { return s.cfg.check(known) }

func (s *Service[T]) collection() repository.Collection {
	return s.store.Collection(s.cfg.Name)
}

// List devuelve una página (o la colección completa si Limit es 0), más recientes primero.
func (s *Service[T]) List(ctx context.Context, p ListParams) (*dto.Pagination, error) {
	q := repository.Query{
		Keyword:       p.Keyword,
		SearchFields:  s.cfg.Search,
		RelatedSearch: s.cfg.SearchRelated,
		Filters:       s.declaredFilters(p.Filters),
	}
	page := 1
	if p.Limit > 0 {
		page = max(p.Page, 1)
		q.Limit = p.Limit
		q.Offset = (page - 1) * p.Limit
	}
	docs, total, err := s.collection().Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listar %s: %w", s.cfg.Name, err)
	}
	items, err := s.items(ctx, docs, s.cfg.listRelations())
	if err != nil {
		return nil, err
	}
	out := &dto.Pagination{
		CurrentPage: page,
		PerPage:     p.Limit,
		TotalItems:  total,
		TotalPages:  TotalPages(total, p.Limit),
		Data:        items,
	}
	if p.Limit == 0 {
		out.PerPage = total
	}
	return out, nil
}

// Show devuelve el registro con todas sus relaciones hidratadas.
func (s *Service[T]) Show(ctx context.Context, id string) (dto.Item, error) {
	doc, err := s.collection().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener %s: %w", s.cfg.Name, err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return s.item(ctx, doc)
}

// Create valida el payload completo y persiste un registro nuevo.
func (s *Service[T]) Create(ctx context.Context, body []byte) (dto.Item, error) {
	raw, err := decodePayload(body)
	if err != nil {
		return nil, err
	}
	raw = canonicalPayload[T](raw)
	var rec T
	verrs := domain.NewValidationError()
	overlay(&rec, raw, verrs)
	if s.cfg.Prepare != nil {
		s.cfg.Prepare(&rec, true)
	}
	if err := s.validate(rec, nil, verrs); err != nil {
		return nil, err
	}
	data, fields, err := encode(rec)
	if err != nil {
		return nil, fmt.Errorf("codificar %s: %w", s.cfg.Name, err)
	}
	if err := s.checkConstraints(ctx, fields, nil, "", verrs); err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs
	}

	now := s.now()
	doc := &repository.Document{ID: s.newID(), Data: data, CreatedAt: now, UpdatedAt: now}
	if err := s.collection().Insert(ctx, doc); err != nil {
		return nil, s.writeError("crear", err)
	}
	return s.item(ctx, doc)
}

// Update aplica solo las claves enviadas; los errores se reportan únicamente para esas claves.
func (s *Service[T]) Update(ctx context.Context, id string, body []byte) (dto.Item, error) {
	raw, err := decodePayload(body)
	if err != nil {
		return nil, err
	}
	raw = canonicalPayload[T](raw)
	coll := s.collection()
	doc, err := coll.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener %s: %w", s.cfg.Name, err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	var rec T
	if err := json.Unmarshal(doc.Data, &rec); err != nil {
		return nil, fmt.Errorf("decodificar %s %s: %w", s.cfg.Name, id, err)
	}
	verrs := domain.NewValidationError()
	overlay(&rec, raw, verrs)
	if s.cfg.Prepare != nil {
		s.cfg.Prepare(&rec, false)
	}
	supplied := make(map[string]bool, len(raw))
	for k := range raw {
		supplied[k] = true
	}
	if err := s.validate(rec, supplied, verrs); err != nil {
		return nil, err
	}
	data, fields, err := encode(rec)
	if err != nil {
		return nil, fmt.Errorf("codificar %s: %w", s.cfg.Name, err)
	}
	if err := s.checkConstraints(ctx, fields, supplied, id, verrs); err != nil {
		return nil, err
	}
	if !verrs.Empty() {
		return nil, verrs
	}

	doc.Data = data
	doc.UpdatedAt = s.now()
	ok, err := coll.Update(ctx, doc)
	if err != nil {
		return nil, s.writeError("actualizar", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Show(ctx, id)
}

// Delete aplica las políticas de dependientes y elimina el registro en una transacción.
func (s *Service[T]) Delete(ctx context.Context, id string) error {
	return s.store.RunInTx(ctx, func(tx repository.Store) error {
		coll := tx.Collection(s.cfg.Name)
		doc, err := coll.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("obtener %s: %w", s.cfg.Name, err)
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		for _, d := range s.cfg.Dependents {
			if d.Policy != Restrict {
				continue
			}
			used, err := tx.Collection(d.Target).Exists(ctx, d.Field, id, "")
			if err != nil {
				return fmt.Errorf("verificar dependientes en %s: %w", d.Target, err)
			}
			if used {
				return &domain.ConflictError{Resource: s.Label(), Dependent: d.Target}
			}
		}
		for _, d := range s.cfg.Dependents {
			if d.Policy != Cascade {
				continue
			}
			if _, err := tx.Collection(d.Target).DeleteWhere(ctx, d.Field, id); err != nil {
				return fmt.Errorf("eliminar dependientes en %s: %w", d.Target, err)
			}
		}
		ok, err := coll.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("eliminar %s: %w", s.cfg.Name, err)
		}
		if !ok {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Get devuelve el registro tipado (nil, domain.ErrNotFound si no existe).
func (s *Service[T]) Get(ctx context.Context, id string) (*Record[T], error) {
	doc, err := s.collection().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener %s: %w", s.cfg.Name, err)
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return decodeRecord[T](doc)
}

// Where devuelve los registros tipados cuyo campo es igual a value, en orden de inserción.
func (s *Service[T]) Where(ctx context.Context, field, value string) ([]Record[T], error) {
	docs, err := s.collection().FindIn(ctx, field, []string{value})
	if err != nil {
		return nil, fmt.Errorf("buscar %s por %s: %w", s.cfg.Name, field, err)
	}
	out := make([]Record[T], 0, len(docs))
	for _, d := range docs {
		rec, err := decodeRecord[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// validate ejecuta las reglas de los tags. Con supplied != nil solo se conservan los
// errores cuyas claves raíz fueron enviadas. Las claves con error de tipo ya tienen mensaje.
func (s *Service[T]) validate(rec T, supplied map[string]bool, verrs *domain.ValidationError) error {
	fieldErrs, err := s.v.Struct(rec)
	if err != nil {
		return fmt.Errorf("validar %s: %w", s.cfg.Name, err)
	}
	typeErrs := make(map[string]bool, len(verrs.Fields))
	for k := range verrs.Fields {
		typeErrs[k] = true
	}
	for key, msgs := range fieldErrs {
		root := rootKey(key)
		if typeErrs[root] {
			continue
		}
		if supplied != nil && !supplied[root] {
			continue
		}
		for _, m := range msgs {
			verrs.Add(key, m)
		}
	}
	return nil
}

// checkConstraints verifica unicidad y existencia de referencias. En update (supplied != nil)
// solo para las claves enviadas; los campos que ya tienen error se omiten.
func (s *Service[T]) checkConstraints(ctx context.Context, fields map[string]any, supplied map[string]bool, selfID string, verrs *domain.ValidationError) error {
	consider := func(f string) bool {
		if verrs.Has(f) {
			return false
		}
		return supplied == nil || supplied[f]
	}
	coll := s.collection()
	for _, f := range s.cfg.Unique {
		if !consider(f) {
			continue
		}
		v, ok := repository.FieldText(fields, f)
		if !ok || v == "" {
			continue
		}
		taken, err := coll.Exists(ctx, f, v, selfID)
		if err != nil {
			return fmt.Errorf("verificar unicidad de %s.%s: %w", s.cfg.Name, f, err)
		}
		if taken {
			verrs.Add(f, uniqueMessage(f))
		}
	}
	for _, ref := range s.cfg.Refs {
		if !consider(ref.Field) {
			continue
		}
		target := s.store.Collection(ref.Target)
		for _, v := range repository.FieldTexts(fields, ref.Field) {
			found, err := target.Exists(ctx, "id", v, "")
			if err != nil {
				return fmt.Errorf("verificar referencia %s.%s: %w", s.cfg.Name, ref.Field, err)
			}
			if !found {
				verrs.Add(ref.Field, fmt.Sprintf("El %s seleccionado no es válido.", ref.Field))
				break
			}
		}
	}
	return nil
}

// writeError traduce la violación de un índice único (carrera entre el chequeo y la escritura)
// a un error de validación sobre el campo.
func (s *Service[T]) writeError(op string, err error) error {
	var dup *domain.DuplicateError
	if errors.As(err, &dup) && dup.Field != "" && dup.Field != "id" {
		verrs := domain.NewValidationError()
		verrs.Add(dup.Field, uniqueMessage(dup.Field))
		return verrs
	}
	return fmt.Errorf("%s %s: %w", op, s.cfg.Name, err)
}

func (s *Service[T]) declaredFilters(in map[string]string) map[string]string {
	if len(in) == 0 || len(s.cfg.Filters) == 0 {
		return nil
	}
	out := make(map[string]string, len(s.cfg.Filters))
	for _, f := range s.cfg.Filters {
		if v, ok := in[f]; ok && v != "" {
			out[f] = v
		}
	}
	return out
}

func uniqueMessage(field string) string {
	return fmt.Sprintf("El valor del campo %s ya está en uso.", field)
}

func encode[T any](rec T) (json.RawMessage, map[string]any, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, nil, err
	}
	fields, err := repository.DecodeFields(data)
	if err != nil {
		return nil, nil, err
	}
	return data, fields, nil
}

func decodeRecord[T any](doc *repository.Document) (*Record[T], error) {
	rec := &Record[T]{ID: doc.ID, CreatedAt: doc.CreatedAt, UpdatedAt: doc.UpdatedAt}
	if err := json.Unmarshal(doc.Data, &rec.Fields); err != nil {
		return nil, fmt.Errorf("decodificar documento %s: %w", doc.ID, err)
	}
	return rec, nil
}
