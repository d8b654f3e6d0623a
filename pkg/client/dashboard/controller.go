// Package dashboard controlador sin interfaz gráfica de una página de recurso del panel:
// listado paginado con búsqueda, modal de alta/edición y borrado.
//
// Cada consulta de listado lleva un número de generación; si llega la respuesta de una
// consulta ya superada (p. ej. una búsqueda anterior más lenta) se descarta.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/backoffice-api/pkg/client"
)

// DefaultDebounce espera tras la última tecla antes de buscar.
const DefaultDebounce = 500 * time.Millisecond

// Tipos de notificación.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice equivalente a un toast.
type Notice struct {
	Kind    string
	Message string
}

// Modal estado del formulario de alta/edición.
type Modal struct {
	Open        bool
	EditingID   string // vacío = alta
	FieldErrors map[string][]string
}

// State instantánea del controlador.
type State[T any] struct {
	Keyword    string
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
	Items      []T
	Loading    bool
	Err        error
	Modal      Modal
	Notices    []Notice
}

// Option configura el controlador.
type Option func(*options)

type options struct {
	perPage  int
	debounce time.Duration
	filters  map[string]string
	onChange func()
}

// WithPerPage tamaño de página (por defecto 10).
func WithPerPage(n int) Option { return func(o *options) { o.perPage = n } }

// WithDebounce reemplaza DefaultDebounce.
func WithDebounce(d time.Duration) Option { return func(o *options) { o.debounce = d } }

// WithFilters filtros exactos fijos (p. ej. sale_id en la página de ítems de una venta).
func WithFilters(f map[string]string) Option { return func(o *options) { o.filters = f } }

// OnChange se invoca tras cada cambio de estado, fuera del lock.
func OnChange(fn func()) Option { return func(o *options) { o.onChange = fn } }

// Controller página de un recurso. Seguro para uso concurrente.
type Controller[T any] struct {
	res  *client.Resource[T]
	opts options

	mu    sync.Mutex
	state State[T]
	gen   uint64
	timer *time.Timer
}

// New crea el controlador para res.
func New[T any](res *client.Resource[T], opts ...Option) *Controller[T] {
	o := options{perPage: 10, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(&o)
	}
	if o.perPage <= 0 {
		o.perPage = 10
	}
	return &Controller[T]{
		res:   res,
		opts:  o,
		state: State[T]{Page: 1, PerPage: o.perPage, Items: []T{}},
	}
}

// State copia del estado actual.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Items = append([]T(nil), c.state.Items...)
	s.Notices = append([]Notice(nil), c.state.Notices...)
	return s
}

// TakeNotices devuelve y vacía las notificaciones pendientes.
func (c *Controller[T]) TakeNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.state.Notices
	c.state.Notices = nil
	return n
}

// Mount carga la primera página.
func (c *Controller[T]) Mount(ctx context.Context) error {
	return c.fetch(ctx, 1)
}

// GoToPage carga la página indicada.
func (c *Controller[T]) GoToPage(ctx context.Context, page int) error {
	return c.fetch(ctx, max(page, 1))
}

// Refresh recarga la página actual.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	page := c.state.Page
	c.mu.Unlock()
	return c.fetch(ctx, page)
}

// SetKeyword actualiza la búsqueda y programa la carga de la página 1 tras el debounce.
// Cada llamada reinicia la espera.
func (c *Controller[T]) SetKeyword(ctx context.Context, keyword string) {
	c.mu.Lock()
	c.state.Keyword = keyword
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.opts.debounce, func() {
		_ = c.fetch(ctx, 1)
	})
	c.mu.Unlock()
	c.changed()
}

// OpenCreate abre el modal vacío.
func (c *Controller[T]) OpenCreate() { c.setModal(Modal{Open: true}) }

// OpenEdit abre el modal para editar id.
func (c *Controller[T]) OpenEdit(id string) { c.setModal(Modal{Open: true, EditingID: id}) }

// CloseModal cierra el modal y limpia errores.
func (c *Controller[T]) CloseModal() { c.setModal(Modal{}) }

// Submit crea (id vacío) o actualiza. Éxito: cierra el modal y recarga la página actual.
// 422: el modal queda abierto con los errores por campo.
func (c *Controller[T]) Submit(ctx context.Context, id string, payload any) error {
	var err error
	if id == "" {
		_, err = c.res.Create(ctx, payload)
	} else {
		_, err = c.res.Update(ctx, id, payload)
	}
	if err != nil {
		c.mu.Lock()
		if apiErr, ok := client.AsAPIError(err); ok && client.IsValidation(err) {
			c.state.Modal = Modal{Open: true, EditingID: id, FieldErrors: apiErr.Errors}
			c.notify(NoticeError, apiErr.Message)
		} else {
			c.notify(NoticeError, message(err))
		}
		c.mu.Unlock()
		c.changed()
		return err
	}

	c.mu.Lock()
	c.state.Modal = Modal{}
	if id == "" {
		c.notify(NoticeSuccess, "Registro creado correctamente")
	} else {
		c.notify(NoticeSuccess, "Registro actualizado correctamente")
	}
	page := c.state.Page
	c.mu.Unlock()
	c.changed()
	return c.fetch(ctx, page)
}

// Delete elimina y recarga; si era el último elemento de una página > 1, retrocede una página.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	if err := c.res.Delete(ctx, id); err != nil {
		c.mu.Lock()
		c.notify(NoticeError, message(err))
		c.mu.Unlock()
		c.changed()
		return err
	}
	c.mu.Lock()
	page := c.state.Page
	if len(c.state.Items) <= 1 && page > 1 {
		page--
	}
	c.notify(NoticeSuccess, "Registro eliminado correctamente")
	c.mu.Unlock()
	c.changed()
	return c.fetch(ctx, page)
}

func (c *Controller[T]) fetch(ctx context.Context, page int) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state.Loading = true
	q := client.ListQuery{
		Keyword: c.state.Keyword,
		Limit:   c.opts.perPage,
		Page:    page,
		Filters: c.opts.filters,
	}
	c.mu.Unlock()
	c.changed()

	res, err := c.res.List(ctx, q)

	c.mu.Lock()
	if gen != c.gen {
		// Respuesta de una consulta ya superada.
		c.mu.Unlock()
		return nil
	}
	c.state.Loading = false
	c.state.Err = err
	if err != nil {
		c.notify(NoticeError, message(err))
	} else {
		c.state.Page = page
		c.state.Items = res.Data
		c.state.TotalItems = res.TotalItems
		c.state.TotalPages = res.TotalPages
	}
	c.mu.Unlock()
	c.changed()
	return err
}

func (c *Controller[T]) setModal(m Modal) {
	c.mu.Lock()
	c.state.Modal = m
	c.mu.Unlock()
	c.changed()
}

// notify requiere c.mu.
func (c *Controller[T]) notify(kind, msg string) {
	c.state.Notices = append(c.state.Notices, Notice{Kind: kind, Message: msg})
}

func (c *Controller[T]) changed() {
	if c.opts.onChange != nil {
		c.opts.onChange()
	}
}

func message(err error) string {
	if apiErr, ok := client.AsAPIError(err); ok {
		return apiErr.Message
	}
	return err.Error()
}
