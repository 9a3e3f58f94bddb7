package ddl

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"file2ddl/internal/lattice"

	"github.com/goccy/go-json"
)

// Keys a dialect descriptor must map. VarcharUnlimited is the long-text type.
const keyVarcharUnlimited = "VarcharUnlimited"

// Feature flags understood by ConfigDialect.
const (
	FeatureBooleanType      = "boolean_type"
	FeatureUnlimitedVarchar = "unlimited_varchar"
)

// lengthPlaceholder marks where WrapLength inserts the length.
const lengthPlaceholder = "{}"

// ConfigDialect is a Dialect driven by a JSON descriptor:
//
//	{
//	  "name": "warehouse",
//	  "type_mappings": {
//	    "Boolean": "BOOLEAN", "SmallInt": "SMALLINT", "Integer": "INTEGER",
//	    "BigInt": "BIGINT", "DoublePrecision": "DOUBLE PRECISION",
//	    "Date": "DATE", "Time": "TIME", "DateTime": "TIMESTAMP",
//	    "Varchar": "VARCHAR({})", "VarcharUnlimited": "TEXT"
//	  },
//	  "features": {"boolean_type": true, "unlimited_varchar": true},
//	  "default_varchar_length": 255,
//	  "unlimited_varchar_type": "TEXT",
//	  "quote": "\""
//	}
type ConfigDialect struct {
	DialectName          string            `json:"name"`
	TypeMappings         map[string]string `json:"type_mappings"`
	Features             map[string]bool   `json:"features"`
	DefaultVarcharLength int               `json:"default_varchar_length,omitempty"`
	UnlimitedVarcharType string            `json:"unlimited_varchar_type,omitempty"`
	Quote                string            `json:"quote,omitempty"`
}

// LoadConfigDialect reads and validates a descriptor from path.
func LoadConfigDialect(path string) (*ConfigDialect, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ddl: read dialect config: %w", err)
	}
	return ParseConfigDialect(b)
}

// ParseConfigDialect decodes and validates a descriptor.
func ParseConfigDialect(b []byte) (*ConfigDialect, error) {
	var d ConfigDialect
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("ddl: decode dialect config: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate requires a mapping for every lattice kind plus VarcharUnlimited.
func (c *ConfigDialect) Validate() error {
	if strings.TrimSpace(c.DialectName) == "" {
		return fmt.Errorf("ddl: dialect config: name is required")
	}
	required := make([]string, 0, 10)
	for _, k := range lattice.Kinds() {
		required = append(required, k.String())
	}
	required = append(required, keyVarcharUnlimited)
	var missing []string
	for _, k := range required {
		if strings.TrimSpace(c.TypeMappings[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("ddl: dialect config %q: missing type mapping for %s", c.DialectName, strings.Join(missing, ", "))
	}
	if len(c.Quote) > 1 && c.Quote != "[]" {
		return fmt.Errorf("ddl: dialect config %q: quote must be one character or \"[]\"", c.DialectName)
	}
	return nil
}

func (c *ConfigDialect) Name() string { return c.DialectName }

// feature reports a flag; absent flags count as supported.
func (c *ConfigDialect) feature(name string) bool {
	v, ok := c.Features[name]
	return !ok || v
}

func (c *ConfigDialect) MapType(k lattice.Kind) string {
	if k == lattice.Boolean && !c.feature(FeatureBooleanType) {
		return c.TypeMappings[lattice.SmallInt.String()]
	}
	if t, ok := c.TypeMappings[k.String()]; ok {
		return t
	}
	return c.TypeMappings[lattice.Varchar.String()]
}

// WrapLength substitutes {} in name, or appends (n) when there is none.
func (c *ConfigDialect) WrapLength(name string, n int) string {
	if strings.Contains(name, lengthPlaceholder) {
		return strings.ReplaceAll(name, lengthPlaceholder, strconv.Itoa(n))
	}
	return fmt.Sprintf("%s(%d)", name, n)
}

func (c *ConfigDialect) Unlimited() string {
	if !c.feature(FeatureUnlimitedVarchar) && c.DefaultVarcharLength > 0 {
		return c.WrapLength(c.MapType(lattice.Varchar), c.DefaultVarcharLength)
	}
	if c.UnlimitedVarcharType != "" {
		return c.UnlimitedVarcharType
	}
	return c.TypeMappings[keyVarcharUnlimited]
}

func (c *ConfigDialect) QuoteIdent(ident string) string {
	switch c.Quote {
	case "":
		return ident
	case "[]":
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	default:
		return c.Quote + strings.ReplaceAll(ident, c.Quote, c.Quote+c.Quote) + c.Quote
	}
}
