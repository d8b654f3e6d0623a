package resource

import (
	"strconv"
	"strings"
)

// DefaultPerPage tamaño de página cuando limit llega con un valor no positivo o ilegible.
const DefaultPerPage = 10

// ListParams parámetros de listado ya normalizados.
// Limit = 0 significa "sin paginar": se devuelve toda la colección filtrada.
type ListParams struct {
	Keyword string
	Limit   int
	Page    int
	Filters map[string]string
}

// ParseListParams normaliza los query params crudos de un listado.
func ParseListParams(keyword, limit, page string, filters map[string]string) ListParams {
	return ListParams{
		Keyword: strings.TrimSpace(keyword),
		Limit:   ParseLimit(limit),
		Page:    ParsePage(page),
		Filters: filters,
	}
}

// ParseLimit: "" o "0" => 0 (todo); si no, los dígitos iniciales; no positivo o ilegible => 10.
func ParseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return 0
	}
	n, ok := leadingInt(raw)
	if !ok || n <= 0 {
		return DefaultPerPage
	}
	return n
}

// ParsePage: por defecto 1; valores menores a 1 se vuelven 1.
func ParsePage(raw string) int {
	n, ok := leadingInt(strings.TrimSpace(raw))
	if !ok || n < 1 {
		return 1
	}
	return n
}

// leadingInt convierte el prefijo numérico ("25abc" -> 25, "-3" -> -3).
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// TotalPages ceil(total/limit). Con limit 0 (sin paginar) siempre es 1.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}
