package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Page página de un listado.
type Page[T any] struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	Data        []T `json:"data"`
}

type listEnvelope[T any] struct {
	Message    string  `json:"message"`
	Pagination Page[T] `json:"pagination"`
}

type itemEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ListQuery parámetros de listado. Limit 0 pide la colección completa.
type ListQuery struct {
	Keyword string
	Limit   int
	Page    int
	Filters map[string]string
}

// Values query string equivalente.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Filters {
		v.Set(k, val)
	}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Resource acceso tipado a /api/<name>. T puede ser un struct o map[string]any.
type Resource[T any] struct {
	c    *Client
	name string
}

// NewResource crea el acceso al recurso name (customers, tax-rates, ...).
func NewResource[T any](c *Client, name string) *Resource[T] {
	return &Resource[T]{c: c, name: name}
}

// Name nombre de ruta del recurso.
func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) path(id string) string {
	p := "/api/" + r.name
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// List GET /api/<name>.
func (r *Resource[T]) List(ctx context.Context, q ListQuery) (*Page[T], error) {
	var env listEnvelope[T]
	if err := r.c.Do(ctx, http.MethodGet, r.path(""), q.Values(), nil, &env); err != nil {
		return nil, err
	}
	if env.Pagination.Data == nil {
		env.Pagination.Data = []T{}
	}
	return &env.Pagination, nil
}

// Get GET /api/<name>/:id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	return r.item(ctx, http.MethodGet, id, nil)
}

// Create POST /api/<name>. payload puede ser un struct, un map o JSON crudo ([]byte).
func (r *Resource[T]) Create(ctx context.Context, payload any) (T, error) {
	return r.item(ctx, http.MethodPost, "", payload)
}

// Update PUT /api/<name>/:id; solo cambian las claves enviadas.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) (T, error) {
	return r.item(ctx, http.MethodPut, id, payload)
}

// Delete DELETE /api/<name>/:id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.c.Do(ctx, http.MethodDelete, r.path(id), nil, nil, nil)
}

func (r *Resource[T]) item(ctx context.Context, method, id string, payload any) (T, error) {
	var env itemEnvelope[T]
	if err := r.c.Do(ctx, method, r.path(id), nil, payload, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}
