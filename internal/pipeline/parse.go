package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"file2ddl/internal/badrow"
	"file2ddl/internal/parser/csv"
	"file2ddl/internal/transform"

	"go.uber.org/zap"
)

// ParseConfig configures Parse.
type ParseConfig struct {
	CSV       csv.Options
	Header    bool
	Transform transform.Options
	Policy    badrow.Policy
	// BadSink receives rejected rows as CSV; may be nil.
	BadSink io.Writer
}

// Parse streams src to dst as canonical CSV, applying null mapping and
// newline substitution. The header, when present, is written first and
// fixes the expected width; otherwise the first good record does.
//
// A tolerance abort returns the counts so far together with an error
// wrapping badrow.ErrAbort. Rows already written stay written.
func Parse(ctx context.Context, env Env, src io.Reader, dst io.Writer, cfg ParseConfig) (counts Counts, err error) {
	start := time.Now()
	defer func() { env.step("parse", start, err) }()

	log := env.logger()

	r, err := csv.NewReader(src, cfg.CSV)
	if err != nil {
		return Counts{}, err
	}

	topt := cfg.Transform
	topt.Mode = transform.ModeParse
	tr := transform.New(topt)

	w := csv.NewWriter(dst)
	bad := badrow.NewManager(cfg.Policy, cfg.BadSink, log)
	rs := &rowSource{r: r, bad: bad, width: -1}

	defer func() {
		if ferr := w.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("parse: flush output: %w", ferr)
		}
		if ferr := bad.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		bad.Summary()
		counts.Rows = rs.row
		counts.BadRows = bad.Count()
		env.recordCounts(counts)
	}()

	if cfg.Header {
		header, ok, err := readHeader(r)
		if err != nil || !ok {
			return counts, err
		}
		rs.width = len(header)
		if err := w.Write(header); err != nil {
			return counts, fmt.Errorf("parse: write header: %w", err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		rec, err := rs.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return counts, err
		}

		counts.Nulls += int64(tr.Apply(rec.Fields, nil))
		if err := w.Write(rec.Fields); err != nil {
			return counts, fmt.Errorf("parse: write line %d: %w", rec.Line, err)
		}
	}

	log.Debug("parse finished",
		zap.Int64("rows", rs.row),
		zap.Int("bad_rows", bad.Count()),
		zap.Int64("nulls", counts.Nulls),
	)
	return counts, nil
}
