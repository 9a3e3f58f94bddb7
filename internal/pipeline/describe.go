package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"file2ddl/internal/badrow"
	"file2ddl/internal/parser/csv"
	"file2ddl/internal/stats"
	"file2ddl/internal/transform"

	"go.uber.org/zap"
)

// DescribeConfig configures Describe.
type DescribeConfig struct {
	CSV       csv.Options
	Header    bool
	Transform transform.Options
	Policy    badrow.Policy
	BadSink   io.Writer

	// Classifier types non-null values, usually a *detect.Detector.
	Classifier stats.Classifier
}

// Description is the outcome of Describe.
type Description struct {
	Counts
	Columns []stats.Snapshot `json:"columns"`
}

// Describe infers a column schema from src. Null sentinels are counted and
// kept out of type detection. Without a header, columns are named F1, F2, ...
// after the width of the first good record.
func Describe(ctx context.Context, env Env, src io.Reader, cfg DescribeConfig) (desc Description, err error) {
	start := time.Now()
	defer func() { env.step("describe", start, err) }()

	log := env.logger()

	r, err := csv.NewReader(src, cfg.CSV)
	if err != nil {
		return Description{}, err
	}

	topt := cfg.Transform
	topt.Mode = transform.ModeDescribe
	tr := transform.New(topt)

	bad := badrow.NewManager(cfg.Policy, cfg.BadSink, log)
	rs := &rowSource{r: r, bad: bad, width: -1}

	var onPromo stats.PromotionFunc
	if env.Verbose {
		onPromo = func(column string, p stats.Promotion) {
			log.Info("type promoted",
				zap.String("column", column),
				zap.Int64("row", p.Row),
				zap.Stringer("from", p.From),
				zap.Stringer("to", p.To),
			)
		}
	}

	var (
		agg   *stats.Aggregator
		nulls []bool
	)
	newAgg := func(names []string) {
		agg = stats.NewAggregator(names, cfg.Classifier, onPromo)
		nulls = make([]bool, len(names))
	}

	defer func() {
		if ferr := bad.Flush(); ferr != nil && err == nil {
			err = ferr
		}
		bad.Summary()
		desc.Rows = rs.row
		desc.BadRows = bad.Count()
		if agg != nil {
			desc.Columns = agg.Snapshot()
		}
		env.recordCounts(desc.Counts)
		if err == nil && env.Verbose {
			logInitialTypes(log, desc.Columns)
		}
	}()

	if cfg.Header {
		header, ok, err := readHeader(r)
		if err != nil || !ok {
			return desc, err
		}
		rs.width = len(header)
		newAgg(header)
	}

	for {
		if err := ctx.Err(); err != nil {
			return desc, err
		}
		rec, err := rs.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return desc, err
		}
		if agg == nil {
			newAgg(stats.SyntheticNames(len(rec.Fields)))
		}

		desc.Nulls += int64(tr.Apply(rec.Fields, nulls))
		if err := agg.Observe(rs.row, rec.Fields, nulls); err != nil {
			return desc, err
		}
	}
	return desc, nil
}

func logInitialTypes(log *zap.Logger, cols []stats.Snapshot) {
	for _, c := range cols {
		if c.InitialRow == 0 {
			log.Info("no values observed", zap.String("column", c.Name))
			continue
		}
		log.Info("initial type",
			zap.String("column", c.Name),
			zap.Int64("row", c.InitialRow),
			zap.Stringer("type", c.InitialType),
			zap.Stringer("final", c.Type),
			zap.Int("promotions", len(c.Promotions)),
		)
	}
}
