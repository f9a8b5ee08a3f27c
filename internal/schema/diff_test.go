package schema

import (
	"testing"

	"github.com/prodsync/prodsync/database"
)

func strPtr(s string) *string { return &s }

func TestDiffSchemas_NoChanges(t *testing.T) {
	source := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "integer", Nullable: false},
					{Name: "email", Type: "text", Nullable: false},
				},
			},
		},
	}
	target := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "integer", Nullable: false},
					{Name: "email", Type: "text", Nullable: false},
				},
			},
		},
	}

	diff := DiffSchemas(source, target)
	if !diff.IsEmpty() {
		t.Fatalf("expected empty diff for identical schemas, got %#v", diff)
	}
}

func TestDiffSchemas_ColumnOnlyInStaging(t *testing.T) {
	source := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "integer", Nullable: false},
					{Name: "age", Type: "integer", Nullable: true},
				},
			},
		},
	}
	target := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "integer", Nullable: false},
				},
			},
		},
	}

	diff := DiffSchemas(source, target)
	if len(diff.ModifiedTables) != 1 {
		t.Fatalf("expected 1 modified table, got %d", len(diff.ModifiedTables))
	}

	td := diff.ModifiedTables[0]
	if td.TableName != "users" {
		t.Errorf("expected table users, got %s", td.TableName)
	}
	if len(td.AddedColumns) != 1 || td.AddedColumns[0].Name != "age" {
		t.Fatalf("expected added column age, got %#v", td.AddedColumns)
	}
	if len(td.RemovedColumns) != 0 {
		t.Errorf("expected no removed columns, got %#v", td.RemovedColumns)
	}
}

func TestDiffSchemas_AddAndRemoveTables(t *testing.T) {
	source := &database.Schema{
		Tables: []database.Table{
			{Name: "orders", Columns: []database.Column{{Name: "id", Type: "bigint"}}},
		},
	}
	target := &database.Schema{
		Tables: []database.Table{
			{Name: "legacy_events", Columns: []database.Column{{Name: "id", Type: "bigint"}}},
		},
	}

	diff := DiffSchemas(source, target)
	if len(diff.AddedTables) != 1 || diff.AddedTables[0].Name != "orders" {
		t.Errorf("expected added table orders, got %#v", diff.AddedTables)
	}
	if len(diff.RemovedTables) != 1 || diff.RemovedTables[0].Name != "legacy_events" {
		t.Errorf("expected removed table legacy_events, got %#v", diff.RemovedTables)
	}
}

func TestDiffSchemas_TypeSpellingsAreEquivalent(t *testing.T) {
	source := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "int4"},
					{Name: "active", Type: "bool"},
					{Name: "created_at", Type: "timestamptz"},
				},
			},
		},
	}
	target := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "integer"},
					{Name: "active", Type: "boolean"},
					{Name: "created_at", Type: "timestamp with time zone"},
				},
			},
		},
	}

	diff := DiffSchemas(source, target)
	if !diff.IsEmpty() {
		t.Fatalf("expected type spellings to normalize to equal, got %#v", diff)
	}
}

func TestDiffSchemas_ModifiedColumn(t *testing.T) {
	source := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "email", Type: "text", Nullable: false, Default: strPtr("''::text")},
				},
			},
		},
	}
	target := &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "email", Type: "character varying", Nullable: true},
				},
			},
		},
	}

	diff := DiffSchemas(source, target)
	if len(diff.ModifiedTables) != 1 {
		t.Fatalf("expected 1 modified table, got %#v", diff)
	}
	mods := diff.ModifiedTables[0].ModifiedColumns
	if len(mods) != 1 {
		t.Fatalf("expected 1 modified column, got %#v", mods)
	}

	got := map[string]bool{}
	for _, c := range mods[0].Changes {
		got[c] = true
	}
	for _, want := range []string{"type", "nullable", "default"} {
		if !got[want] {
			t.Errorf("expected change %q to be detected, got %v", want, mods[0].Changes)
		}
	}
}

func TestDiffSchemas_IndexesAndForeignKeys(t *testing.T) {
	source := &database.Schema{
		Tables: []database.Table{
			{
				Name:    "orders",
				Columns: []database.Column{{Name: "user_id", Type: "integer"}},
				Indexes: []database.Index{
					{Name: "idx_orders_user_id", Columns: []string{"user_id"}},
				},
				ForeignKeys: []database.ForeignKey{
					{Name: "orders_user_id_fkey", Columns: []string{"user_id"}, ReferencedTable: "users", ReferencedColumns: []string{"id"}},
				},
			},
		},
	}
	target := &database.Schema{
		Tables: []database.Table{
			{
				Name:    "orders",
				Columns: []database.Column{{Name: "user_id", Type: "integer"}},
				Indexes: []database.Index{
					{Name: "idx_orders_created", Columns: []string{"created_at"}},
				},
			},
		},
	}

	diff := DiffSchemas(source, target)
	if len(diff.ModifiedTables) != 1 {
		t.Fatalf("expected 1 modified table, got %#v", diff)
	}
	td := diff.ModifiedTables[0]
	if len(td.AddedIndexes) != 1 || td.AddedIndexes[0].Name != "idx_orders_user_id" {
		t.Errorf("expected added index idx_orders_user_id, got %#v", td.AddedIndexes)
	}
	if len(td.RemovedIndexes) != 1 || td.RemovedIndexes[0].Name != "idx_orders_created" {
		t.Errorf("expected removed index idx_orders_created, got %#v", td.RemovedIndexes)
	}
	if len(td.AddedForeignKeys) != 1 || td.AddedForeignKeys[0].Name != "orders_user_id_fkey" {
		t.Errorf("expected added foreign key orders_user_id_fkey, got %#v", td.AddedForeignKeys)
	}
}

func TestDiff_IsEmpty(t *testing.T) {
	emptyDiff := &Diff{}
	if !emptyDiff.IsEmpty() {
		t.Error("Expected empty diff to report as empty")
	}

	nonEmptyDiff := &Diff{
		AddedTables: []database.Table{{Name: "test"}},
	}
	if nonEmptyDiff.IsEmpty() {
		t.Error("Expected non-empty diff to report as not empty")
	}
}

func TestTableDiff_IsEmpty(t *testing.T) {
	emptyDiff := &TableDiff{TableName: "test"}
	if !emptyDiff.IsEmpty() {
		t.Error("Expected empty table diff to report as empty")
	}

	nonEmptyDiff := &TableDiff{
		TableName:    "test",
		AddedColumns: []database.Column{{Name: "age"}},
	}
	if nonEmptyDiff.IsEmpty() {
		t.Error("Expected non-empty table diff to report as not empty")
	}
}
