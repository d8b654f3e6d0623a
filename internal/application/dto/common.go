package dto

// Item representación JSON de un registro: campos + id + timestamps + relaciones hidratadas.
type Item = map[string]any

// Pagination sobre de paginación común a todos los listados.
type Pagination struct {
	CurrentPage int    `json:"current_page"`
	PerPage     int    `json:"per_page"`
	TotalItems  int    `json:"total_items"`
	TotalPages  int    `json:"total_pages"`
	Data        []Item `json:"data"`
}

// ListResponse cuerpo de GET /api/<recurso>.
type ListResponse struct {
	Message    string     `json:"message"`
	Pagination Pagination `json:"pagination"`
}

// ItemResponse cuerpo de show/create/update/delete exitosos.
type ItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Item   `json:"data,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Errors solo viaja en validaciones (422).
type ErrorResponse struct {
	Success bool                `json:"success"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
