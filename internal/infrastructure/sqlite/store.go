// Package sqlite implementa repository.Store sobre SQLite (modernc, sin cgo): una tabla por
// colección con el payload como texto JSON y consultas sobre json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.Store = (*Store)(nil)

// foldFunc minúsculas Unicode para la búsqueda por keyword: el LIKE de SQLite solo ignora
// mayúsculas en ASCII ("josé" no encuentra "JOSÉ").
const foldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, fold)
}

func fold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return strings.ToLower(fmt.Sprint(v)), nil
	}
}

// querier lo cumplen *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store store SQLite. Usa una sola conexión: SQLite admite un escritor a la vez y
// ":memory:" solo existe dentro de su conexión.
type Store struct {
	db   *sql.DB
	q    querier
	path string
}

// NewStore abre (o crea) la base en path. Vacío = "backoffice.db"; ":memory:" para tests.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "backoffice.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	return &Store{db: db, q: db, path: path}, nil
}

// Path ruta configurada de la base.
func (s *Store) Path() string { return s.path }

// Collection devuelve el adaptador de la colección.
func (s *Store) Collection(name string) repository.Collection {
	return &Collection{q: s.q, name: name, table: repository.TableName(name)}
}

// Migrate crea tablas e índices únicos sobre json_extract. Idempotente.
func (s *Store) Migrate(ctx context.Context, specs ...repository.CollectionSpec) error {
	for _, spec := range specs {
		table := repository.TableName(spec.Name)
		if !repository.ValidIdentifier(table) {
			return fmt.Errorf("nombre de colección inválido: %q", spec.Name)
		}
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS ` + table + ` (
				id         TEXT PRIMARY KEY,
				data       TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS ` + table + `_created_at_idx ON ` + table + ` (created_at DESC, id DESC)`,
		}
		for _, f := range spec.Unique {
			if !repository.ValidIdentifier(f) {
				return fmt.Errorf("campo único inválido: %s.%s", spec.Name, f)
			}
			stmts = append(stmts, `CREATE UNIQUE INDEX IF NOT EXISTS `+table+`_`+f+`_key ON `+table+
				` (NULLIF(json_extract(data, '$.`+f+`'), ''))`)
		}
		for _, stmt := range stmts {
			if _, err := s.q.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrar %s: %w", table, err)
			}
		}
	}
	return nil
}

// RunInTx ejecuta fn dentro de una transacción (Commit si fn no falla, Rollback si no).
func (s *Store) RunInTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{q: tx, path: s.path}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close cierra la base.
func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Collection adaptador de una tabla.
type Collection struct {
	q     querier
	name  string
	table string
}

func (c *Collection) Name() string { return c.name }

// Insert persiste un documento nuevo.
func (c *Collection) Insert(ctx context.Context, doc *repository.Document) error {
	_, err := c.q.ExecContext(ctx,
		`INSERT INTO `+c.table+` (id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		doc.ID, string(doc.Data), doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano())
	if err != nil {
		if dup := c.duplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert %s: %w", c.table, err)
	}
	return nil
}

// Get obtiene un documento por ID (nil, nil si no existe).
func (c *Collection) Get(ctx context.Context, id string) (*repository.Document, error) {
	row := c.q.QueryRowContext(ctx, `SELECT id, data, created_at, updated_at FROM `+c.table+` WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", c.table, err)
	}
	return doc, nil
}

// Update reemplaza data y updated_at.
func (c *Collection) Update(ctx context.Context, doc *repository.Document) (bool, error) {
	res, err := c.q.ExecContext(ctx, `UPDATE `+c.table+` SET data = ?, updated_at = ? WHERE id = ?`,
		string(doc.Data), doc.UpdatedAt.UnixNano(), doc.ID)
	if err != nil {
		if dup := c.duplicate(err); dup != nil {
			return false, dup
		}
		return false, fmt.Errorf("update %s: %w", c.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s: %w", c.table, err)
	}
	return n > 0, nil
}

// Delete elimina por ID.
func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	res, err := c.q.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.table, err)
	}
	return n > 0, nil
}

// DeleteWhere elimina los documentos cuyo campo es igual a value.
func (c *Collection) DeleteWhere(ctx context.Context, field, value string) (int, error) {
	col, err := column("", field)
	if err != nil {
		return 0, err
	}
	res, err := c.q.ExecContext(ctx, `DELETE FROM `+c.table+` WHERE `+col+` = ?`, value)
	if err != nil {
		return 0, fmt.Errorf("delete %s where %s: %w", c.table, field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s where %s: %w", c.table, field, err)
	}
	return int(n), nil
}

// Find filtra, cuenta y pagina (created_at DESC, id DESC).
func (c *Collection) Find(ctx context.Context, q repository.Query) ([]*repository.Document, int, error) {
	where, args, err := buildWhere(q)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := c.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+c.table+` t`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	query := `SELECT t.id, t.data, t.created_at, t.updated_at FROM ` + c.table + ` t` + where +
		` ORDER BY t.created_at DESC, t.id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	}
	docs, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", c.table, err)
	}
	return docs, total, nil
}

// FindIn devuelve los documentos cuyo campo (o id) está en values.
func (c *Collection) FindIn(ctx context.Context, field string, values []string) ([]*repository.Document, error) {
	if len(values) == 0 {
		return nil, nil
	}
	col, err := column("", field)
	if err != nil {
		return nil, err
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	args := make([]any, 0, len(values))
	for _, v := range values {
		args = append(args, v)
	}
	docs, err := c.query(ctx, `SELECT id, data, created_at, updated_at FROM `+c.table+
		` WHERE `+col+` IN (`+marks+`) ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.table, err)
	}
	return docs, nil
}

// Exists indica si otro documento (id <> excludeID) tiene field = value.
func (c *Collection) Exists(ctx context.Context, field, value, excludeID string) (bool, error) {
	col, err := column("", field)
	if err != nil {
		return false, err
	}
	var exists bool
	err = c.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+c.table+` WHERE `+col+` = ? AND id <> ?)`, value, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists %s.%s: %w", c.table, field, err)
	}
	return exists, nil
}

func (c *Collection) query(ctx context.Context, query string, args ...any) ([]*repository.Document, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
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

// duplicate traduce una violación UNIQUE. SQLite informa "index '<tabla>_<campo>_key'"
// para índices de expresión y "<tabla>.id" para la PK.
func (c *Collection) duplicate(err error) *domain.DuplicateError {
	var se *sqlite.Error
	isUnique := errors.As(err, &se) &&
		(se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
	msg := err.Error()
	if !isUnique && !strings.Contains(msg, "UNIQUE constraint failed") {
		return nil
	}
	dup := &domain.DuplicateError{Collection: c.name}
	prefix := "index '" + c.table + "_"
	if i := strings.Index(msg, prefix); i >= 0 {
		rest := msg[i+len(prefix):]
		if j := strings.Index(rest, "_key'"); j >= 0 {
			dup.Field = rest[:j]
		}
	} else if strings.Contains(msg, c.table+".id") {
		dup.Field = "id"
	}
	return dup
}

// column expresión SQL con el valor textual de un campo, igual a repository.FieldText:
// booleanos como 'true'/'false', números y strings como texto.
func column(alias, field string) (string, error) {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	if field == "id" {
		return prefix + "id", nil
	}
	if !repository.ValidIdentifier(field) {
		return "", fmt.Errorf("campo inválido: %q", field)
	}
	path := `'$.` + field + `'`
	return `(CASE json_type(` + prefix + `data, ` + path + `) WHEN 'true' THEN 'true' WHEN 'false' THEN 'false' ` +
		`ELSE CAST(json_extract(` + prefix + `data, ` + path + `) AS TEXT) END)`, nil
}

// buildWhere filtros exactos con AND y el keyword como un único grupo OR (propios + EXISTS relacionado).
func buildWhere(q repository.Query) (string, []any, error) {
	var conds []string
	var args []any

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		col, err := column("t", k)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, col+` = ?`)
		args = append(args, q.Filters[k])
	}

	keyword := strings.TrimSpace(q.Keyword)
	if keyword != "" {
		pattern := "%" + escapeLike(strings.ToLower(keyword)) + "%"
		var ors []string
		for _, f := range q.SearchFields {
			col, err := column("t", f)
			if err != nil {
				return "", nil, err
			}
			ors = append(ors, foldFunc+`(`+col+`) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		for _, rs := range q.RelatedSearch {
			target := repository.TableName(rs.Target)
			if !repository.ValidIdentifier(target) {
				return "", nil, fmt.Errorf("colección relacionada inválida: %q", rs.Target)
			}
			ref, err := column("t", rs.Field)
			if err != nil {
				return "", nil, err
			}
			var inner []string
			var innerArgs []any
			for _, f := range rs.Fields {
				col, err := column("r", f)
				if err != nil {
					return "", nil, err
				}
				inner = append(inner, foldFunc+`(`+col+`) LIKE ? ESCAPE '\'`)
				innerArgs = append(innerArgs, pattern)
			}
			if len(inner) == 0 {
				continue
			}
			ors = append(ors, `EXISTS (SELECT 1 FROM `+target+` r WHERE r.id = `+ref+` AND (`+strings.Join(inner, ` OR `)+`))`)
			args = append(args, innerArgs...)
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

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*repository.Document, error) {
	var d repository.Document
	var data string
	var created, updated int64
	if err := row.Scan(&d.ID, &data, &created, &updated); err != nil {
		return nil, err
	}
	d.Data = []byte(data)
	d.CreatedAt = time.Unix(0, created).UTC()
	d.UpdatedAt = time.Unix(0, updated).UTC()
	return &d, nil
}
