package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"file2ddl/internal/parser/csv"

	"go.uber.org/zap"
)

// IssueKind groups diagnose findings.
type IssueKind string

const (
	IssueFieldCount IssueKind = "field_count"
	IssueQuote      IssueKind = "quote"
	IssueEncoding   IssueKind = "encoding"
	IssueLineLength IssueKind = "line_length"
)

// IssueKinds lists the groups in report order.
var IssueKinds = []IssueKind{IssueFieldCount, IssueQuote, IssueEncoding, IssueLineLength}

const (
	// DefaultDiagnoseLimit is the number of problematic records after which
	// Diagnose stops.
	DefaultDiagnoseLimit = 100
	// MaxExamples is the number of examples kept per issue group.
	MaxExamples = 5
	// MaxExampleBytes truncates example content.
	MaxExampleBytes = 100
)

// Issue is one problematic record.
type Issue struct {
	Line    int64     `json:"line"`
	Kind    IssueKind `json:"kind"`
	Detail  string    `json:"detail"`
	Content string    `json:"content"`
}

// DiagnoseConfig configures Diagnose.
type DiagnoseConfig struct {
	CSV csv.Options
	// Fields pins the expected width; 0 takes it from the header or the
	// first record.
	Fields int
	// Limit stops the scan after this many problematic records; 0 means
	// DefaultDiagnoseLimit.
	Limit int
}

// Report is the result of Diagnose.
type Report struct {
	Records  int64                 `json:"records"`
	Expected int                   `json:"expected_fields"`
	Problems int                   `json:"problems"`
	Counts   map[IssueKind]int     `json:"counts"`
	Examples map[IssueKind][]Issue `json:"examples"`
	Stopped  bool                  `json:"stopped"`
	Limit    int                   `json:"limit"`
}

// Clean reports whether no issue was found.
func (r *Report) Clean() bool { return r.Problems == 0 }

func (r *Report) add(is Issue) {
	r.Problems++
	r.Counts[is.Kind]++
	if len(r.Examples[is.Kind]) < MaxExamples {
		is.Content = truncate(is.Content, MaxExampleBytes)
		r.Examples[is.Kind] = append(r.Examples[is.Kind], is)
	}
}

// Diagnose scans src for structural and encoding problems without
// producing output. Unlike Parse it never aborts on bad rows; it stops once
// Limit problems were found.
func Diagnose(ctx context.Context, env Env, src io.Reader, cfg DiagnoseConfig) (rep *Report, err error) {
	start := time.Now()
	defer func() { env.step("diagnose", start, err) }()

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultDiagnoseLimit
	}
	rep = &Report{
		Expected: cfg.Fields,
		Counts:   make(map[IssueKind]int),
		Examples: make(map[IssueKind][]Issue),
		Limit:    limit,
	}

	r, err := csv.NewReader(src, cfg.CSV)
	if err != nil {
		return nil, err
	}

	for !rep.Stopped {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		rep.Records++

		var re *csv.RecordError
		switch {
		case errors.As(err, &re):
			rep.add(Issue{Line: re.Line, Kind: kindOf(re.Reason), Detail: re.Err.Error(), Content: re.Raw})
		case err != nil:
			return rep, err
		case rec.Unterminated:
			rep.add(Issue{Line: rec.Line, Kind: IssueQuote, Detail: "unterminated quoted field at end of input", Content: r.Raw()})
		default:
			if rep.Expected == 0 {
				rep.Expected = len(rec.Fields)
			}
			if len(rec.Fields) != rep.Expected {
				rep.add(Issue{
					Line:    rec.Line,
					Kind:    IssueFieldCount,
					Detail:  fmt.Sprintf("expected %d fields, found %d", rep.Expected, len(rec.Fields)),
					Content: r.Raw(),
				})
			}
		}
		rep.Stopped = rep.Problems >= limit
	}

	env.recordCounts(Counts{Rows: rep.Records, BadRows: rep.Problems})
	env.logger().Debug("diagnose finished",
		zap.Int64("records", rep.Records),
		zap.Int("problems", rep.Problems),
		zap.Bool("stopped", rep.Stopped),
	)
	return rep, nil
}

func kindOf(r csv.Reason) IssueKind {
	switch r {
	case csv.ReasonDecode:
		return IssueEncoding
	case csv.ReasonLineTooLong:
		return IssueLineLength
	default:
		return IssueFieldCount
	}
}

// truncate cuts s to at most n bytes, marking the cut with "...".
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
