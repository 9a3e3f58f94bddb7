package ddl

import (
	"fmt"
	"sort"
	"strings"

	"file2ddl/internal/lattice"
)

// Dialect maps lattice kinds to a database's type names.
type Dialect interface {
	// Name is the registry key, e.g. "postgres".
	Name() string
	// MapType returns the base type name for k. For Varchar it is the name
	// WrapLength decorates.
	MapType(k lattice.Kind) string
	// WrapLength applies a length to a type name, e.g. VARCHAR -> VARCHAR(12).
	WrapLength(name string, n int) string
	// Unlimited is the type used for text longer than LongTextThreshold.
	Unlimited() string
	// QuoteIdent quotes one identifier part.
	QuoteIdent(ident string) string
}

// builtin is a table-driven Dialect.
type builtin struct {
	name      string
	types     map[lattice.Kind]string
	unlimited string
	open      string
	close     string
}

func (b builtin) Name() string { return b.name }

func (b builtin) MapType(k lattice.Kind) string {
	if t, ok := b.types[k]; ok {
		return t
	}
	return b.types[lattice.Varchar]
}

func (b builtin) WrapLength(name string, n int) string {
	return fmt.Sprintf("%s(%d)", name, n)
}

func (b builtin) Unlimited() string { return b.unlimited }

func (b builtin) QuoteIdent(ident string) string {
	if b.open == "" {
		return ident
	}
	return b.open + strings.ReplaceAll(ident, b.close, b.close+b.close) + b.close
}

var ansiTypes = map[lattice.Kind]string{
	lattice.Boolean:         "BOOLEAN",
	lattice.SmallInt:        "SMALLINT",
	lattice.Integer:         "INTEGER",
	lattice.BigInt:          "BIGINT",
	lattice.DoublePrecision: "DOUBLE PRECISION",
	lattice.Date:            "DATE",
	lattice.Time:            "TIME",
	lattice.DateTime:        "TIMESTAMP",
	lattice.Varchar:         "VARCHAR",
}

func withOverrides(base map[lattice.Kind]string, over map[lattice.Kind]string) map[lattice.Kind]string {
	out := make(map[lattice.Kind]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

var (
	Postgres Dialect = builtin{
		name:      "postgres",
		types:     ansiTypes,
		unlimited: "TEXT",
		open:      `"`,
		close:     `"`,
	}
	MySQL Dialect = builtin{
		name: "mysql",
		types: withOverrides(ansiTypes, map[lattice.Kind]string{
			lattice.DoublePrecision: "DOUBLE",
			lattice.DateTime:        "DATETIME",
		}),
		unlimited: "TEXT",
		open:      "`",
		close:     "`",
	}
	Netezza Dialect = builtin{
		name:      "netezza",
		types:     ansiTypes,
		unlimited: "VARCHAR(65535)",
		open:      `"`,
		close:     `"`,
	}
	MSSQL Dialect = builtin{
		name: "mssql",
		types: withOverrides(ansiTypes, map[lattice.Kind]string{
			lattice.Boolean:         "BIT",
			lattice.Integer:         "INT",
			lattice.DoublePrecision: "FLOAT",
			lattice.DateTime:        "DATETIME2",
			lattice.Varchar:         "NVARCHAR",
		}),
		unlimited: "NVARCHAR(MAX)",
		open:      "[",
		close:     "]",
	}
	SQLite Dialect = builtin{
		name: "sqlite",
		types: map[lattice.Kind]string{
			lattice.Boolean:         "INTEGER",
			lattice.SmallInt:        "INTEGER",
			lattice.Integer:         "INTEGER",
			lattice.BigInt:          "INTEGER",
			lattice.DoublePrecision: "REAL",
			lattice.Date:            "TEXT",
			lattice.Time:            "TEXT",
			lattice.DateTime:        "TEXT",
			lattice.Varchar:         "VARCHAR",
		},
		unlimited: "TEXT",
		open:      `"`,
		close:     `"`,
	}
)

var registry = map[string]Dialect{
	"postgres":   Postgres,
	"postgresql": Postgres,
	"mysql":      MySQL,
	"netezza":    Netezza,
	"mssql":      MSSQL,
	"sqlserver":  MSSQL,
	"sqlite":     SQLite,
}

// Lookup returns the built-in dialect registered under name.
func Lookup(name string) (Dialect, error) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("ddl: unknown dialect %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names lists the registry keys in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
