package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name, already sanitized but unquoted; quoting happens at render time
//   - SQLType: dialect type name (e.g., VARCHAR(12), BIGINT)
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name and an ordered list of columns. Name may be
// dotted ("schema.table"); each part is quoted separately.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}
