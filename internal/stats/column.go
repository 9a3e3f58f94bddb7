// Package stats holds the per-column running state built while a stream is
// inferred, and the immutable snapshots exposed when the stream ends.
package stats

import (
	"file2ddl/internal/lattice"

	"github.com/zeebo/xxh3"
)

const (
	// MaxSamples is how many distinct non-null values a column keeps verbatim.
	MaxSamples = 10
	// MaxDistinct caps the distinct-value tracking set; past it, the count is
	// a lower bound.
	MaxDistinct = 1000
)

// Promotion records one change of a column's kind.
type Promotion struct {
	Row  int64        `json:"row"`
	From lattice.Type `json:"from"`
	To   lattice.Type `json:"to"`
}

// ColumnState is the mutable per-column accumulator. It is not safe for
// concurrent use.
type ColumnState struct {
	name string
	typ  lattice.Type

	maxLen    int
	nulls     int64
	total     int64
	values    int64
	min, max  string
	firstRow  int64
	lastRow   int64
	initial   lattice.Type
	initialAt int64

	samples    []string
	distinct   map[uint64]struct{}
	promotions []Promotion
}

// NewColumnState returns an empty column named name.
func NewColumnState(name string) *ColumnState {
	return &ColumnState{
		name:     name,
		distinct: make(map[uint64]struct{}),
	}
}

// Name returns the column name.
func (c *ColumnState) Name() string { return c.name }

// Type returns the current running type.
func (c *ColumnState) Type() lattice.Type { return c.typ }

// ObserveNull counts a null at row.
func (c *ColumnState) ObserveNull(row int64) {
	c.touch(row)
	c.nulls++
}

// Observe merges one classified non-null value. It returns the promotion
// when the column's kind changed, so callers can report it.
func (c *ColumnState) Observe(row int64, value string, t lattice.Type) (Promotion, bool) {
	c.touch(row)
	if n := len(value); n > c.maxLen {
		c.maxLen = n
	}
	c.track(value)
	c.bound(value)

	prev := c.typ
	next := lattice.Join(prev, t)
	if next.Kind == lattice.Varchar {
		next.Length = c.maxLen
	}
	c.typ = next

	switch {
	case prev.Kind == lattice.Unknown:
		c.initial = next
		c.initialAt = row
		return Promotion{}, false
	case prev.Kind != next.Kind:
		p := Promotion{Row: row, From: prev, To: next}
		c.promotions = append(c.promotions, p)
		return p, true
	}
	return Promotion{}, false
}

func (c *ColumnState) touch(row int64) {
	if c.total == 0 {
		c.firstRow = row
	}
	c.lastRow = row
	c.total++
}

func (c *ColumnState) track(value string) {
	if len(c.distinct) >= MaxDistinct {
		return
	}
	h := xxh3.HashString(value)
	if _, seen := c.distinct[h]; seen {
		return
	}
	c.distinct[h] = struct{}{}
	if len(c.samples) < MaxSamples {
		c.samples = append(c.samples, value)
	}
}

// bound keeps the bytewise smallest and largest non-null values.
func (c *ColumnState) bound(value string) {
	c.values++
	if c.values == 1 {
		c.min, c.max = value, value
		return
	}
	if value < c.min {
		c.min = value
	}
	if value > c.max {
		c.max = value
	}
}

// Snapshot freezes the current state.
func (c *ColumnState) Snapshot() Snapshot {
	typ := c.typ
	if typ.Kind == lattice.Unknown {
		typ = lattice.VarcharOf(max(c.maxLen, 1))
	}
	var prom []Promotion
	if len(c.promotions) > 0 {
		prom = append([]Promotion(nil), c.promotions...)
	}
	return Snapshot{
		Name:        c.name,
		Type:        typ,
		MaxLength:   c.maxLen,
		NullCount:   c.nulls,
		Total:       c.total,
		Distinct:    len(c.distinct),
		Min:         c.min,
		Max:         c.max,
		FirstRow:    c.firstRow,
		LastRow:     c.lastRow,
		InitialType: c.initial,
		InitialRow:  c.initialAt,
		Samples:     append([]string(nil), c.samples...),
		Promotions:  prom,
	}
}
