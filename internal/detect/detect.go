// Package detect classifies a single non-null field value into a lattice type.
//
// Classification is an ordered, first-match predicate chain and never looks
// at history; merging observations is the job of lattice.Join.
package detect

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"file2ddl/internal/lattice"

	"github.com/ncruces/go-strftime"
)

// Default literals and patterns.
const (
	DefaultTrue     = "1"
	DefaultFalse    = "0"
	DefaultDate     = "%Y-%m-%d"
	DefaultTime     = "%H:%M:%S"
	DefaultDateTime = "%Y-%m-%d %H:%M:%S"
)

// Options configures a Detector. Empty fields take the defaults above.
type Options struct {
	TrueLiteral  string
	FalseLiteral string

	// Patterns are strftime patterns (e.g. %Y-%m-%d). A pattern without any
	// '%' is taken as a Go reference layout.
	DatePattern     string
	TimePattern     string
	DateTimePattern string
}

// Detector holds the compiled predicate chain.
type Detector struct {
	trueLit, falseLit string

	date     layout
	clock    layout
	datetime layout
}

// layout is a compiled Go time layout.
type layout struct {
	value    string
	fraction bool // layout has a fractional-second field
	seps     int  // '.' and ',' literals in value
}

// New compiles opt into a Detector.
func New(opt Options) (*Detector, error) {
	d := &Detector{
		trueLit:  orDefault(opt.TrueLiteral, DefaultTrue),
		falseLit: orDefault(opt.FalseLiteral, DefaultFalse),
	}

	var err error
	if d.date, err = compile(orDefault(opt.DatePattern, DefaultDate)); err != nil {
		return nil, fmt.Errorf("detect: date pattern: %w", err)
	}
	if d.clock, err = compile(orDefault(opt.TimePattern, DefaultTime)); err != nil {
		return nil, fmt.Errorf("detect: time pattern: %w", err)
	}
	if d.datetime, err = compile(orDefault(opt.DateTimePattern, DefaultDateTime)); err != nil {
		return nil, fmt.Errorf("detect: datetime pattern: %w", err)
	}
	return d, nil
}

func compile(pattern string) (layout, error) {
	v, err := Layout(pattern)
	if err != nil {
		return layout{}, err
	}
	return layout{value: v, fraction: hasFraction(v), seps: separators(v)}, nil
}

// Layout converts a strftime pattern into a Go time layout. Patterns that
// contain no '%' are returned unchanged.
func Layout(pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("empty pattern")
	}
	if !strings.Contains(pattern, "%") {
		return pattern, nil
	}
	goLayout, err := strftime.Layout(pattern)
	if err != nil {
		return "", fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return goLayout, nil
}

// Detect classifies v. Varchar results carry the byte length of v.
func (d *Detector) Detect(v string) lattice.Type {
	if v == d.trueLit || v == d.falseLit {
		return lattice.Of(lattice.Boolean)
	}
	if k, ok := integerKind(v); ok {
		return lattice.Of(k)
	}
	if isDecimal(v) {
		return lattice.Of(lattice.DoublePrecision)
	}
	if d.date.match(v) {
		return lattice.Of(lattice.Date)
	}
	if d.clock.match(v) {
		return lattice.Of(lattice.Time)
	}
	if d.datetime.match(v) {
		return lattice.Of(lattice.DateTime)
	}
	return lattice.VarcharOf(len(v))
}

// integerKind matches -?[0-9]+ and picks the smallest band that holds the
// value. Values beyond int64 report ok=false.
func integerKind(v string) (lattice.Kind, bool) {
	digits := strings.TrimPrefix(v, "-")
	if !allDigits(digits) {
		return lattice.Unknown, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return lattice.Unknown, false
	}
	switch {
	case n >= math.MinInt16 && n <= math.MaxInt16:
		return lattice.SmallInt, true
	case n >= math.MinInt32 && n <= math.MaxInt32:
		return lattice.Integer, true
	default:
		return lattice.BigInt, true
	}
}

// isDecimal matches -?[0-9]+(\.[0-9]+)?. Exponents are rejected.
func isDecimal(v string) bool {
	v = strings.TrimPrefix(v, "-")
	whole, frac, hasDot := strings.Cut(v, ".")
	if !allDigits(whole) {
		return false
	}
	return !hasDot || allDigits(frac)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// match reports a complete match of v against l. time.Parse rejects trailing
// text but silently consumes a fractional second after the seconds field, so
// a value with more '.' or ',' than the layout is rejected unless the layout
// asks for fractions.
func (l layout) match(v string) bool {
	if v == "" {
		return false
	}
	if _, err := time.Parse(l.value, v); err != nil {
		return false
	}
	return l.fraction || separators(v) == l.seps
}

// hasFraction reports whether layout holds a ".000", ".999", ",000" or ",999"
// chunk, which time.Parse treats as fractional seconds.
func hasFraction(layout string) bool {
	for i := 0; i+1 < len(layout); i++ {
		if c := layout[i]; c != '.' && c != ',' {
			continue
		}
		ch := layout[i+1]
		if ch != '0' && ch != '9' {
			continue
		}
		j := i + 1
		for j < len(layout) && layout[j] == ch {
			j++
		}
		if j == len(layout) || layout[j] < '0' || layout[j] > '9' {
			return true
		}
	}
	return false
}

func separators(s string) int {
	return strings.Count(s, ".") + strings.Count(s, ",")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
