// Package schema describes every relation the service relies on and renders
// the DDL that provisions it for a given store dialect.
package schema

import (
	"fmt"
	"strings"

	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// ColumnType is a logical column type, mapped per dialect.
type ColumnType int

const (
	Text ColumnType = iota
	Integer
	Numeric
	Boolean
	JSON
	Timestamp
)

// Column describes one column of a relation.
type Column struct {
	Name       string
	Type       ColumnType
	Default    string // SQL literal, rendered verbatim
	DefaultNow bool
	PrimaryKey bool
	NotNull    bool
	Unique     bool
}

// Table describes one relation. Tenant tables carry organization_id and are
// filtered on it by every read.
type Table struct {
	Name    string
	Columns []Column
	Tenant  bool
}

// TenantColumn is the tenant id column present on every tenant table.
const TenantColumn = "organization_id"

// ColumnNames lists the table's columns in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Statements returns the full provisioning sequence: create, add missing
// columns, then access policies.
func (t Table) Statements(d store.Dialect) []string {
	stmts := []string{t.Create(d)}
	stmts = append(stmts, t.AddColumns(d)...)
	return append(stmts, t.Policies(d)...)
}

// Create renders CREATE TABLE IF NOT EXISTS with the full column set.
func (t Table) Create(d store.Dialect) string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		def := quote(c.Name) + " " + sqlType(c.Type, d)
		if c.PrimaryKey {
			def += " PRIMARY KEY"
		}
		if c.NotNull && !c.PrimaryKey {
			def += " NOT NULL"
		}
		if c.Unique {
			def += " UNIQUE"
		}
		if lit := defaultLiteral(c, d); lit != "" {
			def += " DEFAULT " + lit
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", quote(t.Name), strings.Join(defs, ",\n  "))
}

// AddColumns renders one ADD COLUMN per non-key column so that a table
// created by an older shape picks up new columns. SQLite has no IF NOT
// EXISTS here; the duplicate-column error is classified as already-exists.
func (t Table) AddColumns(d store.Dialect) []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			continue
		}
		def := quote(c.Name) + " " + sqlType(c.Type, d)
		if !c.DefaultNow {
			if lit := defaultLiteral(c, d); lit != "" {
				def += " DEFAULT " + lit
			}
		}
		if d == store.DialectPostgres {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s", quote(t.Name), def))
		} else {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", quote(t.Name), def))
		}
	}
	return out
}

// Policies renders the permissive row-level policy. Isolation is enforced by
// tenant filters in the repositories, not by the database. SQLite has no
// row-level security.
func (t Table) Policies(d store.Dialect) []string {
	if d != store.DialectPostgres {
		return nil
	}
	return []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", quote(t.Name)),
		fmt.Sprintf(`CREATE POLICY "%s_allow_all" ON %s FOR ALL USING (true) WITH CHECK (true)`, t.Name, quote(t.Name)),
	}
}

// Drop renders DROP TABLE IF EXISTS.
func (t Table) Drop(d store.Dialect) string {
	if d == store.DialectPostgres {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", quote(t.Name))
	}
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", quote(t.Name))
}

func sqlType(t ColumnType, d store.Dialect) string {
	if d == store.DialectPostgres {
		switch t {
		case Integer:
			return "INTEGER"
		case Numeric:
			return "NUMERIC(10,2)"
		case Boolean:
			return "BOOLEAN"
		case JSON:
			return "JSONB"
		case Timestamp:
			return "TIMESTAMPTZ"
		default:
			return "TEXT"
		}
	}
	switch t {
	case Integer:
		return "INTEGER"
	case Numeric:
		return "REAL"
	case Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func defaultLiteral(c Column, d store.Dialect) string {
	if c.DefaultNow {
		if d == store.DialectPostgres {
			return "NOW()"
		}
		return "CURRENT_TIMESTAMP"
	}
	return c.Default
}

func quote(ident string) string {
	return `"` + ident + `"`
}
