package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// classify converts a driver error into a *store.Error with a Kind.
func classify(err error, op, relation string) error {
	if err == nil {
		return nil
	}
	var already *store.Error
	if errors.As(err, &already) {
		return err
	}

	out := &store.Error{Kind: store.KindUnknown, Message: err.Error(), Op: op, Relation: relation, Err: err}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		out.Code = string(pqErr.Code)
		out.Message = pqErr.Message
		out.Detail = pqErr.Detail
		out.Kind = postgresKind(pqErr.Code)
		return out
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		out.Code = strconv.Itoa(liteErr.Code())
		out.Kind = sqliteKind(liteErr.Code(), liteErr.Error())
		return out
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		out.Kind = store.KindTransient
	}
	return out
}

func postgresKind(code pq.ErrorCode) store.Kind {
	switch code {
	case "42P01", "42703":
		return store.KindSchemaAbsent
	case "42P07", "42701", "42710", "42P06":
		return store.KindAlreadyExists
	}
	switch code.Class() {
	case "23":
		return store.KindConstraint
	case "22":
		return store.KindValidation
	case "08", "40", "53", "57":
		return store.KindTransient
	}
	return store.KindUnknown
}

func sqliteKind(code int, msg string) store.Kind {
	switch code & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return store.KindConstraint
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return store.KindTransient
	case sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_RANGE:
		return store.KindValidation
	}
	// SQLite reports schema problems as a generic SQLITE_ERROR.
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "no such table"),
		strings.Contains(lower, "no such column"),
		strings.Contains(lower, "has no column named"):
		return store.KindSchemaAbsent
	case strings.Contains(lower, "already exists"),
		strings.Contains(lower, "duplicate column name"):
		return store.KindAlreadyExists
	}
	return store.KindUnknown
}
