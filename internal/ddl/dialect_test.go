package ddl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"file2ddl/internal/lattice"
	"file2ddl/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeName_Builtins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dialect Dialect
		typ     lattice.Type
		want    string
	}{
		{Postgres, lattice.Of(lattice.DoublePrecision), "DOUBLE PRECISION"},
		{Postgres, lattice.Of(lattice.DateTime), "TIMESTAMP"},
		{Postgres, lattice.VarcharOf(5), "VARCHAR(5)"},
		{Postgres, lattice.VarcharOf(0), "VARCHAR(1)"},
		{Postgres, lattice.VarcharOf(LongTextThreshold), "VARCHAR(4000)"},
		{Postgres, lattice.VarcharOf(LongTextThreshold + 1), "TEXT"},
		{MySQL, lattice.Of(lattice.DoublePrecision), "DOUBLE"},
		{MySQL, lattice.Of(lattice.DateTime), "DATETIME"},
		{Netezza, lattice.VarcharOf(9000), "VARCHAR(65535)"},
		{MSSQL, lattice.Of(lattice.Boolean), "BIT"},
		{MSSQL, lattice.VarcharOf(20), "NVARCHAR(20)"},
		{MSSQL, lattice.VarcharOf(5000), "NVARCHAR(MAX)"},
		{SQLite, lattice.Of(lattice.Date), "TEXT"},
		{SQLite, lattice.Of(lattice.BigInt), "INTEGER"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name()+"/"+tt.typ.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, TypeName(tt.dialect, tt.typ))
		})
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	d, err := Lookup("PostgreSQL")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = Lookup("oracle")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "netezza")
}

const warehouseJSON = `{
  "name": "warehouse",
  "type_mappings": {
    "Boolean": "BOOL", "SmallInt": "INT2", "Integer": "INT4", "BigInt": "INT8",
    "DoublePrecision": "FLOAT8", "Date": "DATE", "Time": "TIME", "DateTime": "TIMESTAMP",
    "Varchar": "CHARACTER VARYING({})", "VarcharUnlimited": "CLOB"
  },
  "features": {"boolean_type": true},
  "quote": "\""
}`

func TestConfigDialect_FromJSON(t *testing.T) {
	t.Parallel()

	d, err := ParseConfigDialect([]byte(warehouseJSON))
	require.NoError(t, err)

	assert.Equal(t, "warehouse", d.Name())
	assert.Equal(t, "BOOL", TypeName(d, lattice.Of(lattice.Boolean)))
	assert.Equal(t, "CHARACTER VARYING(12)", TypeName(d, lattice.VarcharOf(12)))
	assert.Equal(t, "CLOB", TypeName(d, lattice.VarcharOf(LongTextThreshold+1)))
	assert.Equal(t, `"a""b"`, d.QuoteIdent(`a"b`))
}

func TestConfigDialect_Features(t *testing.T) {
	t.Parallel()

	d, err := ParseConfigDialect([]byte(warehouseJSON))
	require.NoError(t, err)
	d.Features = map[string]bool{FeatureBooleanType: false, FeatureUnlimitedVarchar: false}
	d.DefaultVarcharLength = 32000

	assert.Equal(t, "INT2", TypeName(d, lattice.Of(lattice.Boolean)))
	assert.Equal(t, "CHARACTER VARYING(32000)", TypeName(d, lattice.VarcharOf(9000)))

	d.UnlimitedVarcharType = "LONG VARCHAR"
	d.Features = nil
	assert.Equal(t, "LONG VARCHAR", d.Unlimited())
}

func TestConfigDialect_Validation(t *testing.T) {
	t.Parallel()

	_, err := ParseConfigDialect([]byte(`{"name":"x","type_mappings":{"Boolean":"B"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SmallInt")
	assert.Contains(t, err.Error(), "VarcharUnlimited")

	_, err = ParseConfigDialect([]byte(`{"type_mappings":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	_, err = ParseConfigDialect([]byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestLoadConfigDialect(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dialect.json")
	require.NoError(t, os.WriteFile(path, []byte(warehouseJSON), 0o600))

	d, err := LoadConfigDialect(path)
	require.NoError(t, err)
	assert.Equal(t, "warehouse", d.Name())

	_, err = LoadConfigDialect(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestGenerate_FromSnapshots(t *testing.T) {
	t.Parallel()

	cols := []stats.Snapshot{
		{Name: "id", Type: lattice.Of(lattice.SmallInt), Total: 2},
		{Name: "name", Type: lattice.VarcharOf(5), NullCount: 1, Total: 2},
		{Name: "2nd col", Type: lattice.Of(lattice.Date), Total: 2},
		{Name: "Name", Type: lattice.Of(lattice.Boolean), Total: 2},
	}
	sql, err := Generate(Postgres, "people", cols)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE \"people\" (\n"+
		"  \"id\" SMALLINT NOT NULL,\n"+
		"  \"name\" VARCHAR(5),\n"+
		"  \"_2nd_col\" DATE NOT NULL,\n"+
		"  \"Name_2\" BOOLEAN NOT NULL\n"+
		");", sql)
}

func TestFromSnapshots_UniqueNames(t *testing.T) {
	t.Parallel()

	snap := func(names ...string) []stats.Snapshot {
		cols := make([]stats.Snapshot, len(names))
		for i, n := range names {
			cols[i] = stats.Snapshot{Name: n, Type: lattice.Of(lattice.Integer), Total: 1}
		}
		return cols
	}
	names := func(def TableDef) []string {
		out := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			out[i] = c.Name
		}
		return out
	}

	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a_2", "a", "a"}, []string{"a_2", "a", "a_3"}},
		{[]string{"a", "a", "a_2", "A"}, []string{"a", "a_2", "a_2_2", "A_3"}},
		{[]string{"x y", "x-y", "x_y"}, []string{"x_y", "x_y_2", "x_y_3"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, names(FromSnapshots(Postgres, "t", snap(tt.in...))), tt.in)
	}

	sql, err := Generate(Postgres, "t", snap("a_2", "a", "a"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(sql, `"a_2"`))
}

func TestSanitizeIdent(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"id":          "id",
		"First Name":  "First_Name",
		"née":         "nee",
		"1st":         "_1st",
		"a-b.c":       "a_b_c",
		"":            "col",
		"  padded  ":  "padded",
		"日本":          "__",
		"price ($)":   "price____",
		"already_ok_": "already_ok_",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeIdent(in), in)
	}
}

func TestTableNameFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultTableName, TableNameFromPath(""))
	assert.Equal(t, DefaultTableName, TableNameFromPath("-"))
	assert.Equal(t, "sales_2024", TableNameFromPath("/data/sales-2024.csv"))
	assert.Equal(t, "orders", TableNameFromPath("orders.csv.gz"))
	assert.Equal(t, "my_file", TableNameFromPath("dir/my file.tsv"))
}
