// Package pipeline wires the tokenizer, transformer, bad-row manager and
// statistics aggregator into the three file2ddl runs: parse, describe and
// diagnose.
//
// Every run reads its source exactly once. Callers that want both parse and
// describe output open the source twice.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"file2ddl/internal/badrow"
	"file2ddl/internal/metrics"
	"file2ddl/internal/parser/csv"

	"go.uber.org/zap"
)

// Env carries the ambient state a run needs. The zero value is usable: it
// logs nothing and records no metrics.
type Env struct {
	Log     *zap.Logger
	Verbose bool
	Metrics *metrics.Recorder
}

func (e Env) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// step records a run's outcome and duration.
func (e Env) step(name string, start time.Time, err error) {
	if errors.Is(err, badrow.ErrAbort) {
		// an abort is a data outcome, not a failed run
		err = nil
	}
	e.Metrics.RecordStep(name, err, time.Since(start))
}

// Counts summarizes one run.
type Counts struct {
	Rows    int64 `json:"rows"`     // data records read, header excluded
	BadRows int   `json:"bad_rows"` // records routed to the bad-row manager
	Nulls   int64 `json:"nulls"`    // fields matching a null sentinel
}

func (e Env) recordCounts(c Counts) {
	e.Metrics.RecordRows(metrics.KindProcessed, c.Rows)
	e.Metrics.RecordRows(metrics.KindBad, int64(c.BadRows))
	e.Metrics.RecordRows(metrics.KindNull, c.Nulls)
}

// readHeader consumes the header record. ok is false on empty input. Any
// row-local failure in the header is fatal.
func readHeader(r *csv.Reader) (fields []string, ok bool, err error) {
	rec, err := r.Next()
	switch {
	case err == nil:
		return rec.Fields, true, nil
	case errors.Is(err, io.EOF):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("header: %w", err)
	}
}

// rowSource yields data records and routes row-local failures to bad.
type rowSource struct {
	r     *csv.Reader
	bad   *badrow.Manager
	width int // -1 until known
	row   int64
}

// next returns the next good record. It returns io.EOF at end of input, an
// *badrow.AbortError when the tolerance is exhausted, or a fatal error.
func (s *rowSource) next() (csv.Record, error) {
	for {
		rec, err := s.r.Next()
		if err != nil {
			var re *csv.RecordError
			if !errors.As(err, &re) {
				return csv.Record{}, err
			}
			s.row++
			if rerr := s.bad.Report(badrow.Row{
				Row:    s.row,
				Line:   re.Line,
				Reason: re.Reason,
				Detail: re.Err.Error(),
				Raw:    re.Raw,
			}); rerr != nil {
				return csv.Record{}, rerr
			}
			continue
		}

		s.row++
		if s.width < 0 {
			s.width = len(rec.Fields)
		}
		if len(rec.Fields) != s.width {
			if rerr := s.bad.Report(badrow.Row{
				Row:    s.row,
				Line:   rec.Line,
				Reason: csv.ReasonFieldCount,
				Detail: fmt.Sprintf("got %d fields, want %d", len(rec.Fields), s.width),
				Raw:    s.r.Raw(),
			}); rerr != nil {
				return csv.Record{}, rerr
			}
			continue
		}
		return rec, nil
	}
}
