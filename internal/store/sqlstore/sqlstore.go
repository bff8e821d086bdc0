// Package sqlstore implements store.Client over database/sql for PostgreSQL
// (lib/pq) and SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// Store talks SQL to one database handle.
type Store struct {
	db      *sql.DB
	dialect store.Dialect
	logger  *slog.Logger
}

// New wraps an open handle. The caller keeps ownership of db; Close closes it.
func New(db *sql.DB, dialect store.Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

func (s *Store) Dialect() store.Dialect { return s.dialect }

func (s *Store) Ping(ctx context.Context) error {
	return classify(s.db.PingContext(ctx), "ping", "")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Select reads rows matching q.
func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	if err := store.CheckQuery(q); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(quote(q.Relation))
	where, args := s.where(q.Filters, 1)
	b.WriteString(where)
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, quote(o.Column)+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, classify(err, "select", q.Relation)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classify(err, "select", q.Relation)
	}

	out := []store.Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classify(err, "select", q.Relation)
		}
		row := make(store.Row, len(cols))
		for i, c := range cols {
			if raw, ok := values[i].([]byte); ok {
				row[c] = string(raw)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "select", q.Relation)
	}
	return out, nil
}

// Insert writes rows in a single multi-row statement, so a rejected row
// rejects the batch.
func (s *Store) Insert(ctx context.Context, relation string, rows []store.Row) error {
	if len(rows) == 0 {
		return nil
	}
	query, args, err := s.insertSQL(relation, rows, false)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return classify(err, "insert", relation)
}

// Upsert inserts rows and resolves id conflicts by overwriting the supplied columns.
func (s *Store) Upsert(ctx context.Context, relation string, rows []store.Row) error {
	if len(rows) == 0 {
		return nil
	}
	query, args, err := s.insertSQL(relation, rows, true)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return classify(err, "upsert", relation)
}

// Update sets values on every row matching filters.
func (s *Store) Update(ctx context.Context, relation string, values store.Row, filters ...store.Filter) error {
	if len(values) == 0 {
		return nil
	}
	if err := checkWrite(relation, values.Columns(), filters); err != nil {
		return err
	}

	cols := values.Columns()
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+len(filters))
	for i, c := range cols {
		sets = append(sets, fmt.Sprintf("%s = %s", quote(c), s.placeholder(i+1)))
		args = append(args, encode(values[c]))
	}
	where, whereArgs := s.where(filters, len(cols)+1)
	query := "UPDATE " + quote(relation) + " SET " + strings.Join(sets, ", ") + where

	_, err := s.db.ExecContext(ctx, query, append(args, whereArgs...)...)
	return classify(err, "update", relation)
}

// Delete removes every row matching filters.
func (s *Store) Delete(ctx context.Context, relation string, filters ...store.Filter) error {
	if err := checkWrite(relation, nil, filters); err != nil {
		return err
	}
	where, args := s.where(filters, 1)
	_, err := s.db.ExecContext(ctx, "DELETE FROM "+quote(relation)+where, args...)
	return classify(err, "delete", relation)
}

// Exec runs DDL statements. More than one statement is sent as one batch;
// both drivers accept multi-statement strings when no arguments are bound.
func (s *Store) Exec(ctx context.Context, statements ...string) error {
	switch len(statements) {
	case 0:
		return nil
	case 1:
		_, err := s.db.ExecContext(ctx, statements[0])
		return classify(err, "exec", "")
	default:
		batch := strings.Join(statements, ";\n") + ";"
		_, err := s.db.ExecContext(ctx, batch)
		return classify(err, "exec", "")
	}
}

// tenantColumn scopes upsert conflicts to the owning tenant.
const tenantColumn = "organization_id"

func (s *Store) insertSQL(relation string, rows []store.Row, upsert bool) (string, []any, error) {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for _, c := range r.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	if err := checkWrite(relation, cols, nil); err != nil {
		return "", nil, err
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", quote(relation), strings.Join(quoted, ", "))
	args := make([]any, 0, len(rows)*len(cols))
	n := 1
	for i, r := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		marks := make([]string, len(cols))
		for j, c := range cols {
			marks[j] = s.placeholder(n)
			n++
			args = append(args, encode(r[c]))
		}
		b.WriteString("(" + strings.Join(marks, ", ") + ")")
	}

	if upsert {
		var sets []string
		for _, c := range cols {
			if c == "id" {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", quote(c), quote(c)))
		}
		if len(sets) == 0 {
			b.WriteString(` ON CONFLICT ("id") DO NOTHING`)
		} else {
			b.WriteString(` ON CONFLICT ("id") DO UPDATE SET ` + strings.Join(sets, ", "))
			// a conflicting row owned by another tenant is left untouched
			if seen[tenantColumn] {
				same := "IS NOT DISTINCT FROM"
				if s.dialect == store.DialectSQLite {
					same = "IS"
				}
				fmt.Fprintf(&b, " WHERE %s.%s %s excluded.%s",
					quote(relation), quote(tenantColumn), same, quote(tenantColumn))
			}
		}
	}
	return b.String(), args, nil
}

func (s *Store) where(filters []store.Filter, start int) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	n := start
	for _, f := range filters {
		if f.Value == nil {
			parts = append(parts, quote(f.Column)+" IS NULL")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s", quote(f.Column), s.placeholder(n)))
		args = append(args, encode(f.Value))
		n++
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func (s *Store) placeholder(n int) string {
	if s.dialect == store.DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func checkWrite(relation string, cols []string, filters []store.Filter) error {
	if !store.ValidIdent(relation) {
		return &store.Error{Kind: store.KindValidation, Relation: relation, Message: fmt.Sprintf("invalid relation name %q", relation)}
	}
	for _, c := range cols {
		if !store.ValidIdent(c) {
			return &store.Error{Kind: store.KindValidation, Relation: relation, Message: fmt.Sprintf("invalid column name %q", c)}
		}
	}
	for _, f := range filters {
		if !store.ValidIdent(f.Column) {
			return &store.Error{Kind: store.KindValidation, Relation: relation, Message: fmt.Sprintf("invalid column name %q", f.Column)}
		}
	}
	return nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// encode turns collection values into JSON text for JSON/JSONB columns.
func encode(v any) any {
	switch t := v.(type) {
	case []int, []string, []any, map[string]float64, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return v
	}
}
