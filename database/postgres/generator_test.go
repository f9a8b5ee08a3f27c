package postgres

import (
	"testing"

	"github.com/prodsync/prodsync/database"
)

func strPtr(s string) *string { return &s }

func TestCreateTable(t *testing.T) {
	gen := NewGenerator()

	table := database.Table{
		Name: "users",
		Columns: []database.Column{
			{Name: "id", Type: "integer", Nullable: false, IsPrimaryKey: true},
			{Name: "email", Type: "text", Nullable: false},
			{Name: "age", Type: "integer", Nullable: true},
		},
	}

	sql, desc := gen.CreateTable(table)
	want := "CREATE TABLE users (\n" +
		"  id integer NOT NULL PRIMARY KEY,\n" +
		"  email text NOT NULL,\n" +
		"  age integer\n" +
		")"
	if sql != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, sql)
	}
	if desc != "Create table users" {
		t.Errorf("unexpected description: %s", desc)
	}
}

func TestFormatColumnDefinition(t *testing.T) {
	gen := NewGenerator()

	tests := []struct {
		name string
		col  database.Column
		want string
	}{
		{
			name: "nullable column",
			col:  database.Column{Name: "age", Type: "integer", Nullable: true},
			want: "age integer",
		},
		{
			name: "not null with default",
			col:  database.Column{Name: "status", Type: "text", Nullable: false, Default: strPtr("'active'")},
			want: "status text NOT NULL DEFAULT 'active'",
		},
		{
			name: "primary key",
			col:  database.Column{Name: "id", Type: "bigint", Nullable: false, IsPrimaryKey: true},
			want: "id bigint NOT NULL PRIMARY KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gen.FormatColumnDefinition(tt.col); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAddForeignKey(t *testing.T) {
	gen := NewGenerator()

	cascade := "CASCADE"
	fk := database.ForeignKey{
		Name:              "orders_user_id_fkey",
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		OnDelete:          &cascade,
	}

	sql, _ := gen.AddForeignKey("orders", fk)
	want := "ALTER TABLE orders ADD CONSTRAINT orders_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE"
	if sql != want {
		t.Errorf("expected %q, got %q", want, sql)
	}
}

func TestAlterColumnDefault(t *testing.T) {
	gen := NewGenerator()

	set := database.ColumnDiff{
		ColumnName: "status",
		New:        database.Column{Name: "status", Type: "text", Default: strPtr("'active'")},
		Changes:    []string{"default"},
	}
	sql, _ := gen.AlterColumnDefault("users", set)
	if sql != "ALTER TABLE users ALTER COLUMN status SET DEFAULT 'active'" {
		t.Errorf("unexpected SET DEFAULT SQL: %s", sql)
	}

	drop := database.ColumnDiff{
		ColumnName: "status",
		New:        database.Column{Name: "status", Type: "text"},
		Changes:    []string{"default"},
	}
	sql, _ = gen.AlterColumnDefault("users", drop)
	if sql != "ALTER TABLE users ALTER COLUMN status DROP DEFAULT" {
		t.Errorf("unexpected DROP DEFAULT SQL: %s", sql)
	}
}
