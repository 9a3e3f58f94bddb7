// Package badrow applies the bad-row tolerance policy and streams rejected
// rows to an optional sink.
package badrow

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"file2ddl/internal/parser/csv"

	"go.uber.org/zap"
)

// ErrAbort is wrapped by *AbortError once the tolerance is exceeded.
var ErrAbort = errors.New("bad-row tolerance exceeded")

// Policy is the number of bad rows a run tolerates.
type Policy struct {
	Limit     int
	Unlimited bool
}

// ParsePolicy accepts "", "0" or "none" (no tolerance), a positive count, or
// "all", "unlimited" or "-1".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "none":
		return Policy{}, nil
	case "all", "unlimited", "-1":
		return Policy{Unlimited: true}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return Policy{}, fmt.Errorf("badrow: invalid tolerance %q (want a count, none or all)", s)
	}
	return Policy{Limit: n}, nil
}

func (p Policy) String() string {
	if p.Unlimited {
		return "all"
	}
	return strconv.Itoa(p.Limit)
}

// allows reports whether count bad rows are still within tolerance.
func (p Policy) allows(count int) bool {
	return p.Unlimited || count <= p.Limit
}

// Row is one rejected record.
type Row struct {
	Row    int64 // data row number, header excluded
	Line   int64 // physical line where the record starts
	Reason csv.Reason
	Detail string
	Raw    string
}

// AbortError reports the row that exhausted the tolerance.
type AbortError struct {
	Count int
	Last  Row
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("aborting at line %d (%s): %d bad rows exceed tolerance", e.Last.Line, e.Last.Reason, e.Count)
}

func (e *AbortError) Unwrap() error { return ErrAbort }

// Manager counts bad rows against a Policy. It is not safe for concurrent
// use; the pipeline drives it from a single goroutine.
type Manager struct {
	policy   Policy
	log      *zap.Logger
	sink     *csv.Writer
	header   bool
	count    int
	byReason map[csv.Reason]int
}

// NewManager returns a Manager. sink may be nil; log may be nil.
func NewManager(p Policy, sink io.Writer, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{policy: p, log: log, byReason: make(map[csv.Reason]int)}
	if sink != nil {
		m.sink = csv.NewWriter(sink)
	}
	return m
}

// Report records r. It returns an *AbortError (wrapping ErrAbort) when r
// pushes the count past the tolerance, or a sink write error.
func (m *Manager) Report(r Row) error {
	m.count++
	m.byReason[r.Reason]++

	m.log.Warn("bad row",
		zap.Int64("line", r.Line),
		zap.Int64("row", r.Row),
		zap.String("reason", string(r.Reason)),
		zap.String("detail", r.Detail),
	)

	if m.sink != nil {
		if !m.header {
			if err := m.sink.Write([]string{"line", "reason", "content"}); err != nil {
				return fmt.Errorf("badrow: write sink: %w", err)
			}
			m.header = true
		}
		if err := m.sink.Write([]string{strconv.FormatInt(r.Line, 10), string(r.Reason), r.Raw}); err != nil {
			return fmt.Errorf("badrow: write sink: %w", err)
		}
	}

	if !m.policy.allows(m.count) {
		return &AbortError{Count: m.count, Last: r}
	}
	return nil
}

// Count is the number of bad rows reported so far.
func (m *Manager) Count() int { return m.count }

// CountByReason returns how many bad rows carried reason.
func (m *Manager) CountByReason(reason csv.Reason) int { return m.byReason[reason] }

// Flush flushes the sink, if any.
func (m *Manager) Flush() error {
	if m.sink == nil {
		return nil
	}
	if err := m.sink.Flush(); err != nil {
		return fmt.Errorf("badrow: flush sink: %w", err)
	}
	return nil
}

// Summary logs the final count when any bad rows occurred.
func (m *Manager) Summary() {
	if m.count == 0 {
		return
	}
	fields := []zap.Field{
		zap.Int("bad_rows", m.count),
		zap.String("tolerance", m.policy.String()),
	}
	for _, reason := range []csv.Reason{csv.ReasonFieldCount, csv.ReasonLineTooLong, csv.ReasonDecode} {
		if n := m.byReason[reason]; n > 0 {
			fields = append(fields, zap.Int(string(reason), n))
		}
	}
	m.log.Warn("bad rows encountered", fields...)
}
