package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.Store = (*Store)(nil)

// Store implementa repository.Store sobre PostgreSQL: una tabla por colección
// (id TEXT, data JSONB, created_at, updated_at) e índices únicos sobre expresiones data->>'campo'.
type Store struct {
	pool *pgxpool.Pool
	q    Querier
}

// NewStore construye el store sobre el pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

// Collection devuelve el adaptador de la colección (usable con pool o tx).
func (s *Store) Collection(name string) repository.Collection {
	return &Collection{q: s.q, name: name, table: repository.TableName(name)}
}

// Migrate crea tablas e índices si no existen. Idempotente.
func (s *Store) Migrate(ctx context.Context, specs ...repository.CollectionSpec) error {
	for _, spec := range specs {
		stmts, err := migrationStatements(spec)
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			if _, err := s.q.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migrar %s: %w", spec.Name, err)
			}
		}
	}
	return nil
}

// migrationStatements DDL de una colección. Los índices únicos ignoran el texto vacío
// (NULLIF): un campo único sin valor no choca con otro igual de vacío.
func migrationStatements(spec repository.CollectionSpec) ([]string, error) {
	table := repository.TableName(spec.Name)
	if !repository.ValidIdentifier(table) {
		return nil, fmt.Errorf("nombre de colección inválido: %q", spec.Name)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + table + ` (
			id         TEXT PRIMARY KEY,
			data       JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + table + `_created_at_idx ON ` + table + ` (created_at DESC, id DESC)`,
	}
	for _, f := range spec.Unique {
		if !repository.ValidIdentifier(f) {
			return nil, fmt.Errorf("campo único inválido: %s.%s", spec.Name, f)
		}
		stmts = append(stmts, `CREATE UNIQUE INDEX IF NOT EXISTS `+uniqueIndexName(table, f)+
			` ON `+table+` ((NULLIF(data->>'`+f+`', '')))`)
	}
	return stmts, nil
}

// RunInTx inicia una transacción, ejecuta fn con un store atado a la tx y hace Commit o Rollback.
// Si el store ya está dentro de una transacción, fn se ejecuta sobre la misma.
func (s *Store) RunInTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&Store{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close cierra el pool (no-op dentro de una transacción).
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Collection adaptador de una tabla de documentos.
type Collection struct {
	q     Querier
	name  string
	table string
}

func (c *Collection) Name() string { return c.name }

// Insert persiste un documento nuevo.
func (c *Collection) Insert(ctx context.Context, doc *repository.Document) error {
	query := `INSERT INTO ` + c.table + ` (id, data, created_at, updated_at) VALUES ($1, $2, $3, $4)`
	_, err := c.q.Exec(ctx, query, doc.ID, []byte(doc.Data), doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicateError(c.name, c.table, err)
		}
		return fmt.Errorf("insert %s: %w", c.table, err)
	}
	return nil
}

// Get obtiene un documento por ID.
func (c *Collection) Get(ctx context.Context, id string) (*repository.Document, error) {
	query := `SELECT id, data, created_at, updated_at FROM ` + c.table + ` WHERE id = $1`
	doc, err := scanDocument(c.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", c.table, err)
	}
	return doc, nil
}

// Update reemplaza data y updated_at. Devuelve false si el id no existe.
func (c *Collection) Update(ctx context.Context, doc *repository.Document) (bool, error) {
	query := `UPDATE ` + c.table + ` SET data = $2, updated_at = $3 WHERE id = $1`
	tag, err := c.q.Exec(ctx, query, doc.ID, []byte(doc.Data), doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return false, duplicateError(c.name, c.table, err)
		}
		return false, fmt.Errorf("update %s: %w", c.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete elimina por ID.
func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := c.q.Exec(ctx, `DELETE FROM `+c.table+` WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteWhere elimina los documentos con data->>field = value.
func (c *Collection) DeleteWhere(ctx context.Context, field, value string) (int, error) {
	if !repository.ValidIdentifier(field) {
		return 0, fmt.Errorf("campo inválido: %q", field)
	}
	tag, err := c.q.Exec(ctx, `DELETE FROM `+c.table+` WHERE data->>'`+field+`' = $1`, value)
	if err != nil {
		return 0, fmt.Errorf("delete %s where %s: %w", c.table, field, err)
	}
	return int(tag.RowsAffected()), nil
}

// Find filtra, cuenta y pagina (created_at DESC, id DESC).
func (c *Collection) Find(ctx context.Context, q repository.Query) ([]*repository.Document, int, error) {
	where, args, err := buildWhere(c.table, q)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := c.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+c.table+` t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.table, err)
	}

	query := `SELECT t.id, t.data, t.created_at, t.updated_at FROM ` + c.table + ` t` + where +
		` ORDER BY t.created_at DESC, t.id DESC`
	if q.Limit > 0 {
		args = append(args, q.Limit, q.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}
	rows, err := c.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", c.table, err)
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", c.table, err)
	}
	return docs, total, nil
}

// FindIn devuelve los documentos cuyo id (field == "id") o data->>field está en values.
func (c *Collection) FindIn(ctx context.Context, field string, values []string) ([]*repository.Document, error) {
	if len(values) == 0 {
		return nil, nil
	}
	col, err := column(field)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, data, created_at, updated_at FROM ` + c.table +
		` WHERE ` + col + ` = ANY($1) ORDER BY created_at, id`
	rows, err := c.q.Query(ctx, query, values)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.table, err)
	}
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.table, err)
	}
	return docs, nil
}

// Exists indica si otro documento (id <> excludeID) tiene field = value.
func (c *Collection) Exists(ctx context.Context, field, value, excludeID string) (bool, error) {
	col, err := column(field)
	if err != nil {
		return false, err
	}
	query := `SELECT EXISTS (SELECT 1 FROM ` + c.table + ` WHERE ` + col + ` = $1 AND id <> $2)`
	var exists bool
	if err := c.q.QueryRow(ctx, query, value, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s.%s: %w", c.table, field, err)
	}
	return exists, nil
}

// buildWhere arma el WHERE de Find. Los filtros exactos se combinan con AND y el keyword
// forma un único grupo OR (campos propios + EXISTS sobre la tabla relacionada).
func buildWhere(table string, q repository.Query) (string, []any, error) {
	var conds []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !repository.ValidIdentifier(k) {
			return "", nil, fmt.Errorf("filtro inválido: %q", k)
		}
		conds = append(conds, `t.data->>'`+k+`' = `+next(q.Filters[k]))
	}

	keyword := strings.TrimSpace(q.Keyword)
	if keyword != "" && (len(q.SearchFields) > 0 || len(q.RelatedSearch) > 0) {
		pattern := next("%" + escapeLike(keyword) + "%")
		var ors []string
		for _, f := range q.SearchFields {
			if !repository.ValidIdentifier(f) {
				return "", nil, fmt.Errorf("campo de búsqueda inválido: %q", f)
			}
			ors = append(ors, `t.data->>'`+f+`' ILIKE `+pattern)
		}
		for _, rs := range q.RelatedSearch {
			target := repository.TableName(rs.Target)
			if !repository.ValidIdentifier(rs.Field) || !repository.ValidIdentifier(target) {
				return "", nil, fmt.Errorf("búsqueda relacionada inválida: %s.%s", rs.Target, rs.Field)
			}
			var inner []string
			for _, f := range rs.Fields {
				if !repository.ValidIdentifier(f) {
					return "", nil, fmt.Errorf("campo relacionado inválido: %q", f)
				}
				inner = append(inner, `r.data->>'`+f+`' ILIKE `+pattern)
			}
			if len(inner) == 0 {
				continue
			}
			ors = append(ors, `EXISTS (SELECT 1 FROM `+target+` r WHERE r.id = t.data->>'`+rs.Field+
				`' AND (`+strings.Join(inner, ` OR `)+`))`)
		}
		if len(ors) > 0 {
			conds = append(conds, `(`+strings.Join(ors, ` OR `)+`)`)
		}
	}
	if len(conds) == 0 {
		return "", args, nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args, nil
}

func column(field string) (string, error) {
	if field == "id" {
		return "id", nil
	}
	if !repository.ValidIdentifier(field) {
		return "", fmt.Errorf("campo inválido: %q", field)
	}
	return `data->>'` + field + `'`, nil
}

type pgxScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row pgxScanner) (*repository.Document, error) {
	var d repository.Document
	var data []byte
	if err := row.Scan(&d.ID, &data, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Data = data
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return &d, nil
}

func collectDocuments(rows pgx.Rows) ([]*repository.Document, error) {
	defer rows.Close()
	var out []*repository.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
