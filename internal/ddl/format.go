package ddl

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"file2ddl/internal/lattice"
	"file2ddl/internal/stats"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LongTextThreshold is the Varchar length above which the dialect's
// unlimited text type is used instead.
const LongTextThreshold = 4000

// DefaultTableName is used when the input has no file name (stdin).
const DefaultTableName = "imported_table"

// TypeName renders t in dialect d.
func TypeName(d Dialect, t lattice.Type) string {
	if t.Kind != lattice.Varchar {
		return d.MapType(t.Kind)
	}
	n := max(t.Length, 1)
	if n > LongTextThreshold {
		return d.Unlimited()
	}
	return d.WrapLength(d.MapType(lattice.Varchar), n)
}

// FromSnapshots builds a TableDef from column snapshots. Column names are
// sanitized and made unique.
func FromSnapshots(d Dialect, table string, cols []stats.Snapshot) TableDef {
	taken := make(map[string]bool, len(cols))
	defs := make([]ColumnDef, len(cols))
	for i, c := range cols {
		base := SanitizeIdent(c.Name)
		name := base
		for n := 2; taken[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		taken[strings.ToLower(name)] = true
		defs[i] = ColumnDef{
			Name:     name,
			SQLType:  TypeName(d, c.Type),
			Nullable: c.Nullable(),
		}
	}
	return TableDef{Name: table, Columns: defs}
}

// Generate renders the CREATE TABLE for cols in dialect d.
func Generate(d Dialect, table string, cols []stats.Snapshot) (string, error) {
	return BuildCreateTableSQL(d, FromSnapshots(d, table, cols))
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeIdent makes s safe as an unquoted identifier: accents are removed,
// anything outside [A-Za-z0-9_] becomes '_' and a leading digit gets a '_'
// prefix. Case is preserved.
func SanitizeIdent(s string) string {
	s = strings.TrimSpace(s)
	if plain, _, err := transform.String(stripMarks, s); err == nil {
		s = plain
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		return "col"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// TableNameFromPath derives a table name from the input file stem. Empty or
// "-" paths yield DefaultTableName.
func TableNameFromPath(path string) string {
	if path == "" || path == "-" {
		return DefaultTableName
	}
	base := filepath.Base(path)
	for {
		ext := filepath.Ext(base)
		if ext == "" || ext == base {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}
	name := SanitizeIdent(base)
	if name == "col" {
		return DefaultTableName
	}
	return name
}
