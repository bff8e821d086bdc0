// Package memstore is an in-process store.Client. Relations only exist after
// a CREATE TABLE statement has been executed, which lets tests exercise the
// schema-absent recovery paths without a database.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aryan0dhankhar/coachsync/internal/store"
)

var (
	createPattern = regexp.MustCompile(`(?i)^\s*create\s+table\s+(?:if\s+not\s+exists\s+)?"?([a-z0-9_]+)"?`)
	dropPattern   = regexp.MustCompile(`(?i)^\s*drop\s+table\s+(?:if\s+exists\s+)?"?([a-z0-9_]+)"?`)
)

// Store keeps rows per relation in insertion order.
type Store struct {
	mu        sync.Mutex
	relations map[string][]store.Row
	faults    []fault
	calls     []string
}

type fault struct {
	op       string
	relation string
	err      *store.Error
}

// New returns an empty store with no relations.
func New() *Store {
	return &Store{relations: map[string][]store.Row{}}
}

// FailNext makes the next call of op against relation return err. An empty
// relation matches any relation.
func (s *Store) FailNext(op, relation string, err *store.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{op: op, relation: relation, err: err})
}

// Calls returns "op:relation" for every call made, in order.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// HasRelation reports whether relation has been created.
func (s *Store) HasRelation(relation string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.relations[relation]
	return ok
}

// Rows returns a copy of every row in relation.
func (s *Store) Rows(relation string) []store.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Row, 0, len(s.relations[relation]))
	for _, r := range s.relations[relation] {
		out = append(out, r.Clone())
	}
	return out
}

func (s *Store) Dialect() store.Dialect { return store.DialectPostgres }
func (s *Store) Ping(_ context.Context) error { return nil }
func (s *Store) Close() error { return nil }

// must be called with mu held
func (s *Store) enter(op, relation string) error {
	s.calls = append(s.calls, op+":"+relation)
	for i, f := range s.faults {
		if f.op == op && (f.relation == "" || f.relation == relation) {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f.err
		}
	}
	return nil
}

func (s *Store) relation(op, name string) ([]store.Row, error) {
	rows, ok := s.relations[name]
	if !ok {
		return nil, &store.Error{
			Kind:     store.KindSchemaAbsent,
			Code:     "42P01",
			Op:       op,
			Relation: name,
			Message:  fmt.Sprintf("relation %q does not exist", name),
		}
	}
	return rows, nil
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]store.Row, error) {
	if err := store.CheckQuery(q); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("select", q.Relation); err != nil {
		return nil, err
	}
	rows, err := s.relation("select", q.Relation)
	if err != nil {
		return nil, err
	}

	out := []store.Row{}
	for _, r := range rows {
		if matches(r, q.Filters) {
			out = append(out, r.Clone())
		}
	}
	if len(q.Order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Order {
				c := compare(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, relation string, rows []store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("insert", relation); err != nil {
		return err
	}
	existing, err := s.relation("insert", relation)
	if err != nil {
		return err
	}

	ids := map[any]bool{}
	for _, r := range existing {
		ids[r["id"]] = true
	}
	for _, r := range rows {
		id := r["id"]
		if id == nil {
			return &store.Error{Kind: store.KindConstraint, Code: "23502", Op: "insert", Relation: relation,
				Message: `null value in column "id" violates not-null constraint`}
		}
		if ids[id] {
			return &store.Error{Kind: store.KindConstraint, Code: "23505", Op: "insert", Relation: relation,
				Message: fmt.Sprintf("duplicate key value violates unique constraint \"%s_pkey\"", relation)}
		}
		ids[id] = true
	}
	for _, r := range rows {
		existing = append(existing, r.Clone())
	}
	s.relations[relation] = existing
	return nil
}

func (s *Store) Upsert(ctx context.Context, relation string, rows []store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("upsert", relation); err != nil {
		return err
	}
	existing, err := s.relation("upsert", relation)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r["id"] == nil {
			return &store.Error{Kind: store.KindConstraint, Code: "23502", Op: "upsert", Relation: relation,
				Message: `null value in column "id" violates not-null constraint`}
		}
	}
	for _, r := range rows {
		matched := false
		for i, e := range existing {
			if e["id"] == r["id"] {
				matched = true
				if owner, ok := r["organization_id"]; ok && !equal(e["organization_id"], owner) {
					break
				}
				merged := e.Clone()
				for k, v := range r.Clone() {
					merged[k] = v
				}
				existing[i] = merged
				break
			}
		}
		if !matched {
			existing = append(existing, r.Clone())
		}
	}
	s.relations[relation] = existing
	return nil
}

func (s *Store) Update(ctx context.Context, relation string, values store.Row, filters ...store.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("update", relation); err != nil {
		return err
	}
	rows, err := s.relation("update", relation)
	if err != nil {
		return err
	}
	for i, r := range rows {
		if !matches(r, filters) {
			continue
		}
		for k, v := range values.Clone() {
			rows[i][k] = v
		}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, relation string, filters ...store.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("delete", relation); err != nil {
		return err
	}
	rows, err := s.relation("delete", relation)
	if err != nil {
		return err
	}
	kept := rows[:0]
	for _, r := range rows {
		if !matches(r, filters) {
			kept = append(kept, r)
		}
	}
	s.relations[relation] = kept
	return nil
}

// Exec understands CREATE TABLE and DROP TABLE; every other statement
// (ALTER, policies) is accepted as a no-op.
func (s *Store) Exec(ctx context.Context, statements ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	op := "exec"
	if len(statements) > 1 {
		op = "exec_batch"
	}
	if err := s.enter(op, ""); err != nil {
		return err
	}
	for _, stmt := range statements {
		for _, part := range strings.Split(stmt, ";") {
			if m := createPattern.FindStringSubmatch(part); m != nil {
				if _, ok := s.relations[m[1]]; !ok {
					s.relations[m[1]] = []store.Row{}
				}
				continue
			}
			if m := dropPattern.FindStringSubmatch(part); m != nil {
				delete(s.relations, m[1])
			}
		}
	}
	return nil
}

func matches(r store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		v, ok := r[f.Column]
		if f.Value == nil {
			if ok && v != nil {
				return false
			}
			continue
		}
		if !equal(v, f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func compare(a, b any) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	if a == nil {
		sa = ""
	}
	if b == nil {
		sb = ""
	}
	return strings.Compare(sa, sb)
}
