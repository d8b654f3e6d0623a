package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// duplicateError traduce la violación a un DuplicateError con el campo JSON afectado.
// Los índices se llaman <tabla>_<campo>_key; la PK es <tabla>_pkey.
func duplicateError(collection, table string, err error) *domain.DuplicateError {
	dup := &domain.DuplicateError{Collection: collection}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return dup
	}
	name := pgErr.ConstraintName
	switch {
	case name == table+"_pkey":
		dup.Field = "id"
	case strings.HasPrefix(name, table+"_") && strings.HasSuffix(name, "_key"):
		dup.Field = strings.TrimSuffix(strings.TrimPrefix(name, table+"_"), "_key")
	}
	return dup
}

// escapeLike escapa los comodines de LIKE/ILIKE (el escape por defecto es la barra invertida).
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// uniqueIndexName nombre del índice único de un campo.
func uniqueIndexName(table, field string) string {
	return table + "_" + field + "_key"
}
