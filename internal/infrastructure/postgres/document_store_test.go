package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

func TestBuildWhere_KeywordAgrupadoYFiltros(t *testing.T) {
	where, args, err := buildWhere("sales", repository.Query{
		Keyword:      "50%_off",
		SearchFields: []string{"invoice_number"},
		RelatedSearch: []repository.RelatedSearch{
			{Field: "customer_id", Target: "customers", Fields: []string{"name"}},
		},
		Filters: map[string]string{"status": "completed", "customer_id": "c1"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		` WHERE t.data->>'customer_id' = $1 AND t.data->>'status' = $2 AND `+
			`(t.data->>'invoice_number' ILIKE $3 OR EXISTS (SELECT 1 FROM customers r WHERE r.id = t.data->>'customer_id' AND (r.data->>'name' ILIKE $3)))`,
		where)
	assert.Equal(t, []any{"c1", "completed", `%50\%\_off%`}, args)
}

func TestBuildWhere_SinCondiciones(t *testing.T) {
	where, args, err := buildWhere("tax_rates", repository.Query{Keyword: "  "})
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildWhere_RechazaIdentificadoresInseguros(t *testing.T) {
	_, _, err := buildWhere("t", repository.Query{Filters: map[string]string{"x'; DROP TABLE t; --": "1"}})
	assert.Error(t, err)

	_, _, err = buildWhere("t", repository.Query{Keyword: "a", SearchFields: []string{"Name"}})
	assert.Error(t, err)
}

func TestDuplicateError_CampoDesdeConstraint(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "tax_rates_name_key"}
	assert.True(t, isUniqueViolation(err))

	dup := duplicateError("tax-rates", "tax_rates", err)
	assert.Equal(t, "name", dup.Field)
	assert.Equal(t, "tax-rates", dup.Collection)

	dup = duplicateError("tax-rates", "tax_rates", &pgconn.PgError{Code: "23505", ConstraintName: "tax_rates_pkey"})
	assert.Equal(t, "id", dup.Field)

	dup = duplicateError("tax-rates", "tax_rates", errors.New("boom"))
	assert.Empty(t, dup.Field)
}

func TestColumn(t *testing.T) {
	col, err := column("id")
	require.NoError(t, err)
	assert.Equal(t, "id", col)

	col, err = column("sale_id")
	require.NoError(t, err)
	assert.Equal(t, "data->>'sale_id'", col)

	_, err = column("bad-field")
	assert.Error(t, err)
}

func TestMigrationStatements_UnicoIgnoraVacio(t *testing.T) {
	stmts, err := migrationStatements(repository.CollectionSpec{Name: "sales", Unique: []string{"invoice_number"}})
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, `CREATE UNIQUE INDEX IF NOT EXISTS sales_invoice_number_key ON sales ((NULLIF(data->>'invoice_number', '')))`, stmts[2])

	_, err = migrationStatements(repository.CollectionSpec{Name: "sales", Unique: []string{"x'; DROP"}})
	assert.Error(t, err)
}
