// Package repository maps application entities onto store relations. Every
// tenant-scoped read and delete is filtered on the caller's tenant id.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/coachsync/internal/observability/metrics"
	"github.com/aryan0dhankhar/coachsync/internal/schema"
	"github.com/aryan0dhankhar/coachsync/internal/store"
)

// ErrTenantRequired is returned by bulk replacement without a tenant id.
var ErrTenantRequired = errors.New("tenant id is required")

// Ensurer provisions relations on demand.
type Ensurer interface {
	Ensure(ctx context.Context, tables ...schema.Table) error
}

// table is the shared implementation behind every entity repository.
type table[T any] struct {
	client  store.Client
	def     schema.Table
	ensurer Ensurer
	logger  *slog.Logger

	toApp func(store.Row) T
	toRow func(T) store.Row
	// id and tenant expose the key fields so generic code can stamp them.
	id     func(*T) *string
	tenant func(*T) *string

	order []store.Order
	limit int
}

func (t *table[T]) scope(tenantID string, filters ...store.Filter) []store.Filter {
	if t.def.Tenant && tenantID != "" {
		filters = append(filters, store.Eq(schema.TenantColumn, tenantID))
	}
	return filters
}

// read never fails: a missing relation is provisioned and the read retried
// once; anything still failing degrades to an empty result.
func (t *table[T]) read(ctx context.Context, q store.Query) []T {
	rows, err := t.client.Select(ctx, q)
	if store.IsKind(err, store.KindSchemaAbsent) && t.ensurer != nil {
		t.logger.Warn("relation missing, provisioning",
			slog.String("relation", q.Relation),
			slog.String("error", err.Error()),
		)
		if ensureErr := t.ensurer.Ensure(ctx, t.def); ensureErr != nil {
			t.logger.Error("provisioning failed",
				slog.String("relation", q.Relation),
				slog.String("error", ensureErr.Error()),
			)
		} else {
			rows, err = t.client.Select(ctx, q)
		}
	}
	if err != nil {
		kind := store.KindOf(err)
		t.logger.Error("read failed, returning empty result",
			slog.String("relation", q.Relation),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
		metrics.ObserveDegradedRead(q.Relation, kind.String())
		return []T{}
	}

	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, t.toApp(r))
	}
	return out
}

// FetchAll returns every row visible to tenantID.
func (t *table[T]) FetchAll(ctx context.Context, tenantID string) []T {
	return t.read(ctx, store.Query{Relation: t.def.Name, Filters: t.scope(tenantID), Order: t.order, Limit: t.limit})
}

func (t *table[T]) where(ctx context.Context, tenantID string, filters ...store.Filter) []T {
	return t.read(ctx, store.Query{Relation: t.def.Name, Filters: t.scope(tenantID, filters...), Order: t.order})
}

// first looks up a single row and reports store failures, except a missing
// relation which simply means no row.
func (t *table[T]) first(ctx context.Context, filters ...store.Filter) (*T, error) {
	rows, err := t.client.Select(ctx, store.Query{Relation: t.def.Name, Filters: filters, Limit: 1})
	if err != nil {
		if store.IsKind(err, store.KindSchemaAbsent) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	item := t.toApp(rows[0])
	return &item, nil
}

// prepare assigns missing ids and stamps the tenant on every item.
func (t *table[T]) prepare(tenantID string, items []T) ([]T, []store.Row) {
	saved := make([]T, len(items))
	rows := make([]store.Row, len(items))
	for i := range items {
		saved[i] = items[i]
		if id := t.id(&saved[i]); *id == "" {
			*id = uuid.NewString()
		}
		if t.tenant != nil && tenantID != "" {
			*t.tenant(&saved[i]) = tenantID
		}
		rows[i] = t.toRow(saved[i])
		// read back through the mapping so defaults match a refetch
		saved[i] = t.toApp(rows[i])
	}
	return saved, rows
}

// claim rejects ids that already belong to another tenant.
func (t *table[T]) claim(ctx context.Context, tenantID string, items []T) error {
	if !t.def.Tenant || tenantID == "" {
		return nil
	}
	for i := range items {
		id := *t.id(&items[i])
		if id == "" {
			continue
		}
		rows, err := t.client.Select(ctx, store.Query{Relation: t.def.Name, Filters: []store.Filter{store.Eq("id", id)}, Limit: 1})
		if err != nil {
			if store.IsKind(err, store.KindSchemaAbsent) {
				return nil
			}
			return err
		}
		if len(rows) == 1 {
			if owner := rows[0].String(schema.TenantColumn); owner != "" && owner != tenantID {
				return &store.Error{
					Kind:     store.KindConstraint,
					Op:       "upsert",
					Relation: t.def.Name,
					Message:  fmt.Sprintf("record %s belongs to another organization", id),
				}
			}
		}
	}
	return nil
}

// ReplaceAll deletes every tenant row and inserts items, returning them as
// stored. Ids owned by another tenant are refused before anything is deleted.
// The insert is skipped when the delete fails; a failed insert leaves the
// tenant with no rows.
func (t *table[T]) ReplaceAll(ctx context.Context, tenantID string, items []T) ([]T, error) {
	if t.def.Tenant && tenantID == "" {
		return nil, ErrTenantRequired
	}
	if err := t.claim(ctx, tenantID, items); err != nil {
		return nil, err
	}
	if err := t.client.Delete(ctx, t.def.Name, t.scope(tenantID)...); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []T{}, nil
	}
	saved, rows := t.prepare(tenantID, items)
	if err := t.client.Insert(ctx, t.def.Name, rows); err != nil {
		return nil, err
	}
	return saved, nil
}

// Upsert writes items keyed by id, generating ids where missing, and returns
// them as stored.
func (t *table[T]) Upsert(ctx context.Context, tenantID string, items ...T) ([]T, error) {
	if len(items) == 0 {
		return []T{}, nil
	}
	if err := t.claim(ctx, tenantID, items); err != nil {
		return nil, err
	}
	saved, rows := t.prepare(tenantID, items)
	if err := t.client.Upsert(ctx, t.def.Name, rows); err != nil {
		return nil, err
	}
	return saved, nil
}

// Delete removes the row with id inside tenantID.
func (t *table[T]) Delete(ctx context.Context, tenantID, id string) error {
	return t.deleteWhere(ctx, tenantID, store.Eq("id", id))
}

func (t *table[T]) deleteWhere(ctx context.Context, tenantID string, filters ...store.Filter) error {
	if t.def.Tenant && tenantID == "" {
		return ErrTenantRequired
	}
	return t.client.Delete(ctx, t.def.Name, t.scope(tenantID, filters...)...)
}
