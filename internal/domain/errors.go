package domain

import (
	"errors"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
	ErrMalformed    = errors.New("cuerpo JSON inválido")
)

// ValidationError agrupa los mensajes de validación por campo (clave JSON).
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError construye un error de validación vacío.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add agrega un mensaje al campo indicado.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Has indica si el campo ya tiene algún mensaje.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Empty es true cuando no hay errores acumulados.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validación fallida: " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// DuplicateError lo devuelven los stores cuando un índice único rechaza la escritura.
// Field es la clave JSON afectada (vacío si no se pudo determinar).
type DuplicateError struct {
	Collection string
	Field      string
}

func (e *DuplicateError) Error() string {
	return "valor duplicado en " + e.Collection + "." + e.Field
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// ConflictError explica por qué no se pudo eliminar un registro (política restrict).
type ConflictError struct {
	Resource  string
	Dependent string
}

func (e *ConflictError) Error() string {
	return "el registro de " + e.Resource + " tiene registros dependientes en " + e.Dependent
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
