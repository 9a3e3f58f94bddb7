// Package ddl maps inferred column types onto database dialects and renders
// CREATE TABLE statements.
//
// Dialects are capability interfaces: the inference core hands over lattice
// types and never names a concrete database. Built-in dialects live in
// dialect.go; ConfigDialect is a data-driven one loaded from JSON.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef using
// the dialect's identifier quoting.
//
// Rules:
//
//   - t.Name must be non-empty. Dotted names are quoted part by part.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <quoted Name> <SQLType>[ NOT NULL]
//
//   - The resulting statement has the form:
//
//     CREATE TABLE <name> (
//     <col1-def>,
//     <col2-def>
//     );
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		col := strings.TrimSpace(c.Name)
		if col == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", col)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(col))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		quoteQualified(d, name),
		strings.Join(cols, ",\n  "),
	), nil
}

func quoteQualified(d Dialect, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdent(strings.TrimSpace(p))
	}
	return strings.Join(parts, ".")
}
