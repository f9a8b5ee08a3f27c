package sanitize

import (
	"reflect"
	"testing"

	"github.com/prodsync/prodsync/internal/planner"
)

func TestSanitize_RemovesOwnershipAndPrivilegeStatements(t *testing.T) {
	plan := &planner.Plan{
		Statements: []planner.Statement{
			{SQL: "CREATE TABLE users (id integer)", Kind: planner.Additive},
			{SQL: "ALTER TABLE users OWNER TO staging_admin", Kind: planner.Additive},
			{SQL: "ALTER TABLE users ADD COLUMN age integer", Kind: planner.Additive},
			{SQL: "ALTER DEFAULT PRIVILEGES IN SCHEMA public GRANT SELECT ON TABLES TO readonly", Kind: planner.Additive},
			{SQL: "   ", Kind: planner.Additive},
			{SQL: "CREATE INDEX idx_users_age ON users (age)", Kind: planner.Additive},
		},
	}

	got := Sanitize(plan)

	want := []string{
		"CREATE TABLE users (id integer)",
		"ALTER TABLE users ADD COLUMN age integer",
		"CREATE INDEX idx_users_age ON users (age)",
	}
	if len(got.Statements) != len(want) {
		t.Fatalf("expected %d statements, got %d", len(want), len(got.Statements))
	}
	for i, stmt := range got.Statements {
		if stmt.SQL != want[i] {
			t.Errorf("statement %d: expected %q, got %q", i, want[i], stmt.SQL)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	plan := &planner.Plan{
		Statements: []planner.Statement{
			{SQL: "CREATE TABLE users (id integer)", Kind: planner.Additive},
			{SQL: "ALTER TABLE users OWNER TO postgres", Kind: planner.Additive},
			{SQL: "DROP TABLE legacy CASCADE", Kind: planner.Destructive},
		},
	}

	once := Sanitize(plan)
	twice := Sanitize(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("sanitize is not idempotent: first %#v, second %#v", once, twice)
	}
}

func TestSanitize_KeepsCleanPlanIntact(t *testing.T) {
	plan := &planner.Plan{
		Statements: []planner.Statement{
			{SQL: "CREATE TABLE users (id integer)", Kind: planner.Additive},
			{SQL: "DROP TABLE legacy CASCADE", Kind: planner.Destructive},
		},
	}

	got := Sanitize(plan)
	if !reflect.DeepEqual(got.Statements, plan.Statements) {
		t.Errorf("expected clean plan untouched, got %#v", got.Statements)
	}
}

func TestSanitize_CaseInsensitive(t *testing.T) {
	plan := &planner.Plan{
		Statements: []planner.Statement{
			{SQL: "alter table users owner to staging_admin"},
			{SQL: "alter default privileges in schema public revoke all on tables from public"},
		},
	}

	got := Sanitize(plan)
	if len(got.Statements) != 0 {
		t.Errorf("expected lowercase statements removed, got %#v", got.Statements)
	}
}

func TestSanitize_NilAndEmpty(t *testing.T) {
	if Sanitize(nil) != nil {
		t.Error("expected nil plan to stay nil")
	}
	if got := Sanitize(&planner.Plan{}); !got.IsEmpty() {
		t.Errorf("expected empty plan to stay empty, got %#v", got)
	}
}
