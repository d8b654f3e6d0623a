package resource

import (
	"context"
	"fmt"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// toItem aplana un documento: campos + id + timestamps.
func toItem(doc *repository.Document) (dto.Item, error) {
	fields, err := repository.DecodeFields(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("decodificar documento %s: %w", doc.ID, err)
	}
	fields["id"] = doc.ID
	fields["created_at"] = doc.CreatedAt
	fields["updated_at"] = doc.UpdatedAt
	return fields, nil
}

// item un registro con todas sus relaciones (show/create/update).
func (s *Service[T]) item(ctx context.Context, doc *repository.Document) (dto.Item, error) {
	items, err := s.items(ctx, []*repository.Document{doc}, s.cfg.Relations)
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// items convierte documentos y adjunta las relaciones pedidas con una consulta por relación.
func (s *Service[T]) items(ctx context.Context, docs []*repository.Document, rels []Relation) ([]dto.Item, error) {
	out := make([]dto.Item, 0, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		it, err := toItem(d)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
		ids = append(ids, d.ID)
	}
	if len(out) == 0 {
		return out, nil
	}
	for _, rel := range rels {
		var err error
		switch rel.Kind {
		case BelongsTo:
			err = s.hydrateBelongsTo(ctx, out, rel)
		case BelongsToMany:
			err = s.hydrateBelongsToMany(ctx, out, rel)
		case HasMany:
			err = s.hydrateHasMany(ctx, out, ids, rel)
		}
		if err != nil {
			return nil, fmt.Errorf("hidratar %s.%s: %w", s.cfg.Name, rel.Name, err)
		}
	}
	return out, nil
}

func (s *Service[T]) hydrateBelongsTo(ctx context.Context, items []dto.Item, rel Relation) error {
	var keys []string
	for _, it := range items {
		if v, ok := repository.FieldText(it, rel.Field); ok && v != "" {
			keys = append(keys, v)
		}
	}
	byID, err := s.fetchByID(ctx, rel.Target, keys)
	if err != nil {
		return err
	}
	for _, it := range items {
		var related any
		if v, ok := repository.FieldText(it, rel.Field); ok {
			if r, found := byID[v]; found {
				related = r
			}
		}
		it[rel.Name] = related
	}
	return nil
}

func (s *Service[T]) hydrateBelongsToMany(ctx context.Context, items []dto.Item, rel Relation) error {
	var keys []string
	for _, it := range items {
		keys = append(keys, repository.FieldTexts(it, rel.Field)...)
	}
	byID, err := s.fetchByID(ctx, rel.Target, keys)
	if err != nil {
		return err
	}
	for _, it := range items {
		list := make([]dto.Item, 0)
		for _, v := range repository.FieldTexts(it, rel.Field) {
			if r, found := byID[v]; found {
				list = append(list, r)
			}
		}
		it[rel.Name] = list
	}
	return nil
}

func (s *Service[T]) hydrateHasMany(ctx context.Context, items []dto.Item, ids []string, rel Relation) error {
	docs, err := s.store.Collection(rel.Target).FindIn(ctx, rel.Field, ids)
	if err != nil {
		return err
	}
	grouped := make(map[string][]dto.Item, len(items))
	for _, d := range docs {
		child, err := toItem(d)
		if err != nil {
			return err
		}
		owner, _ := repository.FieldText(child, rel.Field)
		grouped[owner] = append(grouped[owner], child)
	}
	for i, it := range items {
		list := grouped[ids[i]]
		if list == nil {
			list = make([]dto.Item, 0)
		}
		it[rel.Name] = list
	}
	return nil
}

func (s *Service[T]) fetchByID(ctx context.Context, target string, keys []string) (map[string]dto.Item, error) {
	out := make(map[string]dto.Item)
	if len(keys) == 0 {
		return out, nil
	}
	seen := make(map[string]bool, len(keys))
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	docs, err := s.store.Collection(target).FindIn(ctx, "id", uniq)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		it, err := toItem(d)
		if err != nil {
			return nil, err
		}
		out[d.ID] = it
	}
	return out, nil
}
