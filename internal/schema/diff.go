package schema

import (
	"strings"

	"github.com/prodsync/prodsync/database"
)

// Diff represents all structural differences between two environments.
// The diff is directional: it describes the changes needed on target so that
// it matches source, never the reverse.
type Diff struct {
	AddedTables    []database.Table `json:"added_tables,omitempty"`
	RemovedTables  []database.Table `json:"removed_tables,omitempty"`
	ModifiedTables []TableDiff      `json:"modified_tables,omitempty"`
}

// TableDiff represents changes to a single table
type TableDiff struct {
	TableName          string                `json:"table_name"`
	AddedColumns       []database.Column     `json:"added_columns,omitempty"`
	RemovedColumns     []database.Column     `json:"removed_columns,omitempty"`
	ModifiedColumns    []database.ColumnDiff `json:"modified_columns,omitempty"`
	AddedIndexes       []database.Index      `json:"added_indexes,omitempty"`
	RemovedIndexes     []database.Index      `json:"removed_indexes,omitempty"`
	AddedForeignKeys   []database.ForeignKey `json:"added_foreign_keys,omitempty"`
	RemovedForeignKeys []database.ForeignKey `json:"removed_foreign_keys,omitempty"`
}

// DiffSchemas compares the source (staging) schema against the target
// (production) schema and returns the changes needed to converge target.
func DiffSchemas(source, target *database.Schema) *Diff {
	diff := &Diff{}

	targetTables := make(map[string]*database.Table)
	for i := range target.Tables {
		targetTables[target.Tables[i].Name] = &target.Tables[i]
	}

	sourceTables := make(map[string]*database.Table)
	for i := range source.Tables {
		sourceTables[source.Tables[i].Name] = &source.Tables[i]
	}

	// Tables present on source but missing from target must be created there
	for i := range source.Tables {
		sourceTable := &source.Tables[i]
		targetTable, exists := targetTables[sourceTable.Name]
		if !exists {
			diff.AddedTables = append(diff.AddedTables, *sourceTable)
			continue
		}
		tableDiff := diffTables(targetTable, sourceTable)
		if !tableDiff.IsEmpty() {
			diff.ModifiedTables = append(diff.ModifiedTables, *tableDiff)
		}
	}

	// Tables present only on target are considered removed on source
	for i := range target.Tables {
		if _, exists := sourceTables[target.Tables[i].Name]; !exists {
			diff.RemovedTables = append(diff.RemovedTables, target.Tables[i])
		}
	}

	return diff
}

// diffTables compares the target table against the source table
func diffTables(target, source *database.Table) *TableDiff {
	diff := &TableDiff{
		TableName: target.Name,
	}

	targetCols := make(map[string]*database.Column)
	for i := range target.Columns {
		targetCols[target.Columns[i].Name] = &target.Columns[i]
	}

	sourceCols := make(map[string]*database.Column)
	for i := range source.Columns {
		sourceCols[source.Columns[i].Name] = &source.Columns[i]
	}

	// Added and modified columns, in source declaration order
	for i := range source.Columns {
		sourceCol := &source.Columns[i]
		targetCol, exists := targetCols[sourceCol.Name]
		if !exists {
			diff.AddedColumns = append(diff.AddedColumns, *sourceCol)
			continue
		}
		if colDiff := diffColumns(targetCol, sourceCol); colDiff != nil {
			diff.ModifiedColumns = append(diff.ModifiedColumns, *colDiff)
		}
	}

	// Removed columns, in target declaration order
	for i := range target.Columns {
		if _, exists := sourceCols[target.Columns[i].Name]; !exists {
			diff.RemovedColumns = append(diff.RemovedColumns, target.Columns[i])
		}
	}

	targetIdxs := make(map[string]*database.Index)
	for i := range target.Indexes {
		targetIdxs[target.Indexes[i].Name] = &target.Indexes[i]
	}

	sourceIdxs := make(map[string]*database.Index)
	for i := range source.Indexes {
		sourceIdxs[source.Indexes[i].Name] = &source.Indexes[i]
	}

	for i := range source.Indexes {
		if _, exists := targetIdxs[source.Indexes[i].Name]; !exists {
			diff.AddedIndexes = append(diff.AddedIndexes, source.Indexes[i])
		}
	}

	for i := range target.Indexes {
		if _, exists := sourceIdxs[target.Indexes[i].Name]; !exists {
			diff.RemovedIndexes = append(diff.RemovedIndexes, target.Indexes[i])
		}
	}

	targetFKs := make(map[string]*database.ForeignKey)
	for i := range target.ForeignKeys {
		targetFKs[target.ForeignKeys[i].Name] = &target.ForeignKeys[i]
	}

	sourceFKs := make(map[string]*database.ForeignKey)
	for i := range source.ForeignKeys {
		sourceFKs[source.ForeignKeys[i].Name] = &source.ForeignKeys[i]
	}

	for i := range source.ForeignKeys {
		if _, exists := targetFKs[source.ForeignKeys[i].Name]; !exists {
			diff.AddedForeignKeys = append(diff.AddedForeignKeys, source.ForeignKeys[i])
		}
	}

	for i := range target.ForeignKeys {
		if _, exists := sourceFKs[target.ForeignKeys[i].Name]; !exists {
			diff.RemovedForeignKeys = append(diff.RemovedForeignKeys, target.ForeignKeys[i])
		}
	}

	return diff
}

// diffColumns compares a target column against its source counterpart
func diffColumns(target, source *database.Column) *database.ColumnDiff {
	var changes []string

	if !equalTypes(target.Type, source.Type) {
		changes = append(changes, "type")
	}
	if target.Nullable != source.Nullable {
		changes = append(changes, "nullable")
	}
	if !equalDefaults(target.Default, source.Default) {
		changes = append(changes, "default")
	}

	if len(changes) == 0 {
		return nil
	}

	return &database.ColumnDiff{
		ColumnName: target.Name,
		Old:        *target,
		New:        *source,
		Changes:    changes,
	}
}

func equalTypes(a, b string) bool {
	return normalizeType(a) == normalizeType(b)
}

// normalizeType maps equivalent PostgreSQL type spellings onto one form
func normalizeType(t string) string {
	switch lower := strings.ToLower(t); lower {
	case "int", "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "bool":
		return "boolean"
	case "character varying", "varchar":
		return "character varying"
	case "timestamp with time zone", "timestamptz":
		return "timestamp with time zone"
	default:
		return lower
	}
}

// equalDefaults compares two default values
func equalDefaults(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// IsEmpty returns true if there are no differences
func (d *TableDiff) IsEmpty() bool {
	return len(d.AddedColumns) == 0 &&
		len(d.RemovedColumns) == 0 &&
		len(d.ModifiedColumns) == 0 &&
		len(d.AddedIndexes) == 0 &&
		len(d.RemovedIndexes) == 0 &&
		len(d.AddedForeignKeys) == 0 &&
		len(d.RemovedForeignKeys) == 0
}

// IsEmpty returns true if there are no differences
func (d *Diff) IsEmpty() bool {
	return len(d.AddedTables) == 0 &&
		len(d.RemovedTables) == 0 &&
		len(d.ModifiedTables) == 0
}
