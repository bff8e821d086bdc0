package schema

import (
	"strings"
	"testing"

	"github.com/aryan0dhankhar/coachsync/internal/store"
)

func TestEveryTenantTableCarriesTenantColumn(t *testing.T) {
	for _, tbl := range Coaching() {
		if !tbl.Tenant {
			t.Errorf("%s should be marked as tenant table", tbl.Name)
		}
		found := false
		for _, c := range tbl.Columns {
			if c.Name == TenantColumn {
				found = true
			}
		}
		if !found {
			t.Errorf("%s has no %s column", tbl.Name, TenantColumn)
		}
	}
	for _, tbl := range Admin() {
		if tbl.Tenant {
			t.Errorf("%s is a platform table", tbl.Name)
		}
	}
}

func TestPostgresStatements(t *testing.T) {
	stmts := Goals.Statements(store.DialectPostgres)
	if !strings.HasPrefix(stmts[0], `CREATE TABLE IF NOT EXISTS "goal_agreements_coaching"`) {
		t.Fatalf("unexpected create statement: %s", stmts[0])
	}
	if !strings.Contains(stmts[0], `"status" TEXT DEFAULT 'nog niet begonnen'`) {
		t.Fatalf("status default missing: %s", stmts[0])
	}

	alters := 0
	for _, s := range stmts {
		if strings.Contains(s, "ADD COLUMN IF NOT EXISTS") {
			alters++
		}
	}
	if alters != len(Goals.Columns)-1 {
		t.Fatalf("expected one ADD COLUMN per non-key column, got %d", alters)
	}

	last := stmts[len(stmts)-1]
	if !strings.Contains(last, "CREATE POLICY") || !strings.Contains(last, "USING (true)") {
		t.Fatalf("expected permissive policy last, got %s", last)
	}
}

func TestSQLiteStatements(t *testing.T) {
	stmts := Organizations.Statements(store.DialectSQLite)
	for _, s := range stmts {
		if strings.Contains(s, "IF NOT EXISTS \"") && strings.HasPrefix(s, "ALTER") {
			t.Fatalf("sqlite does not support ADD COLUMN IF NOT EXISTS: %s", s)
		}
		if strings.Contains(s, "POLICY") || strings.Contains(s, "ROW LEVEL SECURITY") {
			t.Fatalf("sqlite has no row level security: %s", s)
		}
		if strings.HasPrefix(s, "ALTER") && strings.Contains(s, "CURRENT_TIMESTAMP") {
			t.Fatalf("sqlite rejects non-constant defaults on ADD COLUMN: %s", s)
		}
	}
	if !strings.Contains(stmts[0], `"manager_email" TEXT NOT NULL UNIQUE`) {
		t.Fatalf("manager_email should be unique: %s", stmts[0])
	}
	if !strings.Contains(stmts[0], "DEFAULT CURRENT_TIMESTAMP") {
		t.Fatalf("timestamps should default to now: %s", stmts[0])
	}
}

func TestLookup(t *testing.T) {
	tbl, ok := Lookup("recurring_reports_coaching")
	if !ok || tbl.Name != RecurringReports.Name {
		t.Fatalf("lookup failed")
	}
	if _, ok := Lookup("nope"); ok {
		t.Fatalf("unknown table should not resolve")
	}
	if got := len(All()); got != 15 {
		t.Fatalf("expected 15 relations, got %d", got)
	}
}
