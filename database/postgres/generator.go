package postgres

import (
	"fmt"
	"strings"

	"github.com/prodsync/prodsync/database"
)

// Generator implements database.SQLGenerator for PostgreSQL
type Generator struct{}

// NewGenerator creates a new PostgreSQL SQL generator
func NewGenerator() *Generator {
	return &Generator{}
}

// CreateTable generates PostgreSQL SQL to create a table
func (g *Generator) CreateTable(table database.Table) (string, string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", table.Name))

	for i, col := range table.Columns {
		sb.WriteString("  ")
		sb.WriteString(g.FormatColumnDefinition(col))
		if i < len(table.Columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(")")

	description := fmt.Sprintf("Create table %s", table.Name)
	return sb.String(), description
}

// DropTable generates PostgreSQL SQL to drop a table
func (g *Generator) DropTable(table database.Table) (string, string) {
	sql := fmt.Sprintf("DROP TABLE %s CASCADE", table.Name)
	description := fmt.Sprintf("Drop table %s", table.Name)
	return sql, description
}

// AddColumn generates PostgreSQL SQL to add a column
func (g *Generator) AddColumn(tableName string, col database.Column) (string, string) {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		tableName,
		g.FormatColumnDefinition(col))
	description := fmt.Sprintf("Add column %s to table %s", col.Name, tableName)
	return sql, description
}

// DropColumn generates PostgreSQL SQL to drop a column
func (g *Generator) DropColumn(tableName string, col database.Column) (string, string) {
	sql := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", tableName, col.Name)
	description := fmt.Sprintf("Drop column %s from table %s", col.Name, tableName)
	return sql, description
}

// AlterColumnType generates PostgreSQL SQL to change a column's type
func (g *Generator) AlterColumnType(tableName string, diff database.ColumnDiff) (string, string) {
	sql := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s",
		tableName, diff.ColumnName, diff.New.Type)
	description := fmt.Sprintf("Change type of %s.%s from %s to %s",
		tableName, diff.ColumnName, diff.Old.Type, diff.New.Type)
	return sql, description
}

// AlterColumnNullable generates PostgreSQL SQL to change a column's nullability
func (g *Generator) AlterColumnNullable(tableName string, diff database.ColumnDiff) (string, string) {
	var sql string
	if diff.New.Nullable {
		sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL",
			tableName, diff.ColumnName)
	} else {
		sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL",
			tableName, diff.ColumnName)
	}
	description := fmt.Sprintf("Change nullability of %s.%s to %t",
		tableName, diff.ColumnName, diff.New.Nullable)
	return sql, description
}

// AlterColumnDefault generates PostgreSQL SQL to change a column's default
func (g *Generator) AlterColumnDefault(tableName string, diff database.ColumnDiff) (string, string) {
	var sql string
	if diff.New.Default == nil {
		sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT",
			tableName, diff.ColumnName)
	} else {
		sql = fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s",
			tableName, diff.ColumnName, *diff.New.Default)
	}
	description := fmt.Sprintf("Change default of %s.%s", tableName, diff.ColumnName)
	return sql, description
}

// AddIndex generates PostgreSQL SQL to add an index
func (g *Generator) AddIndex(tableName string, idx database.Index) (string, string) {
	uniqueStr := ""
	if idx.Unique {
		uniqueStr = "UNIQUE "
	}

	columns := strings.Join(idx.Columns, ", ")

	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		uniqueStr, idx.Name, tableName, columns)

	description := fmt.Sprintf("Create index %s on table %s", idx.Name, tableName)
	return sql, description
}

// DropIndex generates PostgreSQL SQL to drop an index
func (g *Generator) DropIndex(tableName string, idx database.Index) (string, string) {
	sql := fmt.Sprintf("DROP INDEX %s", idx.Name)
	description := fmt.Sprintf("Drop index %s from table %s", idx.Name, tableName)
	return sql, description
}

// AddForeignKey generates PostgreSQL SQL to add a foreign key
func (g *Generator) AddForeignKey(tableName string, fk database.ForeignKey) (string, string) {
	columns := strings.Join(fk.Columns, ", ")
	refColumns := strings.Join(fk.ReferencedColumns, ", ")

	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		tableName, fk.Name, columns, fk.ReferencedTable, refColumns)

	if fk.OnDelete != nil {
		sql += fmt.Sprintf(" ON DELETE %s", *fk.OnDelete)
	}
	if fk.OnUpdate != nil {
		sql += fmt.Sprintf(" ON UPDATE %s", *fk.OnUpdate)
	}

	description := fmt.Sprintf("Add foreign key %s to table %s", fk.Name, tableName)
	return sql, description
}

// DropForeignKey generates PostgreSQL SQL to drop a foreign key
func (g *Generator) DropForeignKey(tableName string, fk database.ForeignKey) (string, string) {
	sql := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", tableName, fk.Name)
	description := fmt.Sprintf("Drop foreign key %s from table %s", fk.Name, tableName)
	return sql, description
}

// FormatColumnDefinition formats a column definition for CREATE/ALTER statements
func (g *Generator) FormatColumnDefinition(col database.Column) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s", col.Name, col.Type))

	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}

	if col.Default != nil {
		sb.WriteString(fmt.Sprintf(" DEFAULT %s", *col.Default))
	}

	if col.IsPrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}

	return sb.String()
}
