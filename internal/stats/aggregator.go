package stats

import (
	"fmt"

	"file2ddl/internal/lattice"
)

// Snapshot is the read-only view of one column at end of stream.
type Snapshot struct {
	Name        string       `json:"name"`
	Type        lattice.Type `json:"type"`
	MaxLength   int          `json:"max_length"`
	NullCount   int64        `json:"null_count"`
	Total       int64        `json:"total"`
	Distinct    int          `json:"distinct"`
	Min         string       `json:"min"` // bytewise, non-null values only
	Max         string       `json:"max"`
	FirstRow    int64        `json:"first_row"`
	LastRow     int64        `json:"last_row"`
	InitialType lattice.Type `json:"initial_type"`
	InitialRow  int64        `json:"initial_row"`
	Samples     []string     `json:"samples"`
	Promotions  []Promotion  `json:"promotions,omitempty"`
}

// Nullable reports whether the column needs a NULL-able definition. Columns
// with no rows at all are treated as nullable.
func (s Snapshot) Nullable() bool { return s.NullCount > 0 || s.Total == 0 }

// NullPercent is the share of nulls in percent.
func (s Snapshot) NullPercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.NullCount) / float64(s.Total) * 100
}

// Classifier maps a non-null value to its lattice type.
type Classifier interface {
	Detect(v string) lattice.Type
}

// PromotionFunc is notified each time a column's kind changes.
type PromotionFunc func(column string, p Promotion)

// Aggregator drives one ColumnState per column.
type Aggregator struct {
	cols     []*ColumnState
	classify Classifier
	onPromo  PromotionFunc
}

// NewAggregator creates one column per name. onPromo may be nil.
func NewAggregator(names []string, c Classifier, onPromo PromotionFunc) *Aggregator {
	cols := make([]*ColumnState, len(names))
	for i, n := range names {
		cols[i] = NewColumnState(n)
	}
	return &Aggregator{cols: cols, classify: c, onPromo: onPromo}
}

// SyntheticNames returns F1..Fn for headerless input.
func SyntheticNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("F%d", i+1)
	}
	return out
}

// Width is the number of columns.
func (a *Aggregator) Width() int { return len(a.cols) }

// Observe folds one record into the columns. nulls[i] marks fields excluded
// from type testing. len(fields) must equal Width.
func (a *Aggregator) Observe(row int64, fields []string, nulls []bool) error {
	if len(fields) != len(a.cols) {
		return fmt.Errorf("stats: row %d has %d fields, want %d", row, len(fields), len(a.cols))
	}
	for i, v := range fields {
		col := a.cols[i]
		if nulls != nil && nulls[i] {
			col.ObserveNull(row)
			continue
		}
		if p, ok := col.Observe(row, v, a.classify.Detect(v)); ok && a.onPromo != nil {
			a.onPromo(col.name, p)
		}
	}
	return nil
}

// Snapshot returns the frozen state of every column in order.
func (a *Aggregator) Snapshot() []Snapshot {
	out := make([]Snapshot, len(a.cols))
	for i, c := range a.cols {
		out[i] = c.Snapshot()
	}
	return out
}
