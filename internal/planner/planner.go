package planner

import (
	"github.com/prodsync/prodsync/database"
	"github.com/prodsync/prodsync/internal/schema"
)

// GeneratePlan creates a migration plan from a schema diff using the provided
// generator. Each statement is classified additive or destructive as it is
// generated.
func GeneratePlan(diff *schema.Diff, gen database.SQLGenerator) *Plan {
	plan := &Plan{
		Statements: []Statement{},
	}

	// Order of operations for safe migrations:
	// 1. Add new tables
	// 2. Add new columns to existing tables
	// 3. Modify columns (type changes, nullability, defaults)
	// 4. Add foreign keys (after referenced tables/columns exist)
	// 5. Add indexes
	// 6. Remove indexes (from removed tables or columns)
	// 7. Remove foreign keys (before referenced tables/columns are dropped)
	// 8. Remove columns
	// 9. Remove tables

	// Step 1: Add new tables
	for _, table := range diff.AddedTables {
		sql, desc := gen.CreateTable(table)
		plan.add(sql, desc, Additive)

		// Foreign keys for new tables, after the table itself exists
		for _, fk := range table.ForeignKeys {
			sql, desc := gen.AddForeignKey(table.Name, fk)
			plan.add(sql, desc, Additive)
		}
	}

	// Steps 2-6: Process table modifications
	for _, tableDiff := range diff.ModifiedTables {
		for _, col := range tableDiff.AddedColumns {
			sql, desc := gen.AddColumn(tableDiff.TableName, col)
			plan.add(sql, desc, Additive)
		}

		for _, colDiff := range tableDiff.ModifiedColumns {
			plan.addColumnChanges(gen, tableDiff.TableName, colDiff)
		}

		for _, fk := range tableDiff.AddedForeignKeys {
			sql, desc := gen.AddForeignKey(tableDiff.TableName, fk)
			plan.add(sql, desc, Additive)
		}

		for _, idx := range tableDiff.AddedIndexes {
			sql, desc := gen.AddIndex(tableDiff.TableName, idx)
			plan.add(sql, desc, Additive)
		}

		for _, idx := range tableDiff.RemovedIndexes {
			sql, desc := gen.DropIndex(tableDiff.TableName, idx)
			plan.add(sql, desc, Destructive)
		}

		for _, fk := range tableDiff.RemovedForeignKeys {
			sql, desc := gen.DropForeignKey(tableDiff.TableName, fk)
			plan.add(sql, desc, Destructive)
		}

		for _, col := range tableDiff.RemovedColumns {
			sql, desc := gen.DropColumn(tableDiff.TableName, col)
			plan.add(sql, desc, Destructive)
		}
	}

	// Step 9: Remove old tables
	for _, table := range diff.RemovedTables {
		sql, desc := gen.DropTable(table)
		plan.add(sql, desc, Destructive)
	}

	return plan
}

func (p *Plan) add(sql, desc string, kind Kind) {
	p.Statements = append(p.Statements, Statement{
		SQL:         sql,
		Description: desc,
		Kind:        kind,
	})
}

// addColumnChanges emits statements for an in-place column modification.
// Type changes tighten the on-disk representation and are destructive;
// SET NOT NULL narrows the set of valid rows and is destructive too.
func (p *Plan) addColumnChanges(gen database.SQLGenerator, tableName string, diff database.ColumnDiff) {
	if containsChange(diff.Changes, "type") {
		sql, desc := gen.AlterColumnType(tableName, diff)
		p.add(sql, desc, Destructive)
	}

	if containsChange(diff.Changes, "nullable") {
		sql, desc := gen.AlterColumnNullable(tableName, diff)
		kind := Additive
		if !diff.New.Nullable {
			kind = Destructive
		}
		p.add(sql, desc, kind)
	}

	if containsChange(diff.Changes, "default") {
		sql, desc := gen.AlterColumnDefault(tableName, diff)
		p.add(sql, desc, Additive)
	}
}

// containsChange checks if a change name is in the slice
func containsChange(changes []string, name string) bool {
	for _, c := range changes {
		if c == name {
			return true
		}
	}
	return false
}
