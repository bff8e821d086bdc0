// Package store is the request/response client every repository uses to
// reach the remote relational store. Backends live in sqlstore (PostgreSQL,
// SQLite) and memstore (in-process, for tests).
package store

import (
	"context"
	"fmt"
	"regexp"
)

// Dialect names the SQL flavour a backend speaks. DDL rendering depends on it.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Filter is an equality predicate. A nil Value matches NULL.
type Filter struct {
	Column string
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Value: value}
}

// Order sorts a query by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a read against one relation.
type Query struct {
	Relation string
	Filters  []Filter
	Order    []Order
	Limit    int
}

// Client is the boundary to the remote store.
type Client interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	// Insert writes all rows or none.
	Insert(ctx context.Context, relation string, rows []Row) error
	// Upsert inserts rows, updating every supplied column when the id exists.
	Upsert(ctx context.Context, relation string, rows []Row) error
	Update(ctx context.Context, relation string, values Row, filters ...Filter) error
	Delete(ctx context.Context, relation string, filters ...Filter) error
	// Exec runs DDL. Several statements are sent as one batch.
	Exec(ctx context.Context, statements ...string) error
	Dialect() Dialect
	Ping(ctx context.Context) error
	Close() error
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdent reports whether name is safe to splice into SQL as an identifier.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// CheckQuery validates relation and column names before a backend renders SQL.
func CheckQuery(q Query) error {
	if !ValidIdent(q.Relation) {
		return &Error{Kind: KindValidation, Op: "select", Message: fmt.Sprintf("invalid relation name %q", q.Relation)}
	}
	for _, f := range q.Filters {
		if !ValidIdent(f.Column) {
			return &Error{Kind: KindValidation, Op: "select", Relation: q.Relation, Message: fmt.Sprintf("invalid column name %q", f.Column)}
		}
	}
	for _, o := range q.Order {
		if !ValidIdent(o.Column) {
			return &Error{Kind: KindValidation, Op: "select", Relation: q.Relation, Message: fmt.Sprintf("invalid order column %q", o.Column)}
		}
	}
	return nil
}
