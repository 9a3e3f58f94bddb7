package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"file2ddl/internal/config"
	"file2ddl/internal/ddl"
	"file2ddl/internal/detect"
	"file2ddl/internal/pipeline"
	"file2ddl/internal/stats"
	"file2ddl/internal/storage"
	"file2ddl/internal/transform"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDescribeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe [input]",
		Short: "Infer a column schema and optionally render CREATE TABLE",
		Long: `describe classifies every non-null value and widens each column's type
until it fits all of them:

  Boolean < SmallInt < Integer < BigInt < DoublePrecision < Varchar

Date, Time and DateTime only combine with themselves; mixing them with
anything else yields Varchar. Values matching --fnull are counted as nulls
and never typed.

Examples:
  file2ddl describe sales.csv
  file2ddl describe sales.csv --ddl --database mssql --table dbo.sales
  file2ddl describe sales.csv --ddl --apply 'sqlite=stage.db'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDescribe(cmd.Context())
		},
	}
	addDialectFlags(cmd)

	f := cmd.Flags()
	f.StringArray("fnull", []string{""}, "null sentinel (repeatable, exact match)")
	f.String("ftrue", detect.DefaultTrue, "literal classified as boolean true")
	f.String("ffalse", detect.DefaultFalse, "literal classified as boolean false")
	f.String("fdate", detect.DefaultDate, "date pattern (strftime, or a Go layout)")
	f.String("ftime", detect.DefaultTime, "time pattern (strftime, or a Go layout)")
	f.String("fdatetime", detect.DefaultDateTime, "datetime pattern (strftime, or a Go layout)")
	f.String("format", "table", "output format: table or json")
	f.Bool("ddl", false, "print CREATE TABLE after the column summary")
	f.String("database", "postgres", "DDL dialect: "+strings.Join(ddl.Names(), ", "))
	f.String("dialect-config", "", "JSON dialect definition (overrides --database)")
	f.String("table", "", "table name (default: sanitized input file name)")
	f.StringArray("apply", nil, "run the DDL against kind=DSN (repeatable), e.g. postgres=postgres://u:p@host/db")
	f.String("badfile", "", "write rejected records to this path")
	f.String("badmax", "0", "bad records to tolerate: a count, none or all")
	return cmd
}

// describeOutput is the --format json document.
type describeOutput struct {
	pipeline.Description
	Table string `json:"table"`
	DDL   string `json:"ddl,omitempty"`
}

func (a *app) runDescribe(ctx context.Context) (err error) {
	csvOpt, err := a.run.CSVOptions()
	if err != nil {
		return err
	}
	policy, err := a.run.Policy()
	if err != nil {
		return err
	}
	det, err := detect.New(a.run.DetectOptions())
	if err != nil {
		return config.Errorf("fdate", "%v", err)
	}

	var dialect ddl.Dialect
	if a.run.DDL {
		if dialect, err = a.dialect(); err != nil {
			return err
		}
	}

	src, err := a.openInput(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	bad, err := a.badSink()
	if err != nil {
		return err
	}
	defer closeInto(&err, bad)

	desc, err := pipeline.Describe(ctx, a.env(), src, pipeline.DescribeConfig{
		CSV:        csvOpt,
		Header:     !a.run.NoHeader,
		Transform:  a.run.TransformOptions(transform.ModeDescribe),
		Policy:     policy,
		BadSink:    writerOrNil(bad),
		Classifier: det,
	})
	a.badRows = desc.BadRows
	if err != nil {
		return err
	}

	table := a.run.Table
	if table == "" {
		table = ddl.TableNameFromPath(a.run.Input)
	}

	out := describeOutput{Description: desc, Table: table}
	if dialect != nil {
		if len(desc.Columns) == 0 {
			a.log.Warn("no columns found; skipping DDL")
		} else if out.DDL, err = ddl.Generate(dialect, table, desc.Columns); err != nil {
			return err
		}
	}

	if a.run.Format == "json" {
		err = pipeline.WriteJSON(a.stdout, out)
	} else {
		err = pipeline.WriteTable(a.stdout, desc.Columns)
		if err == nil && out.DDL != "" {
			_, err = fmt.Fprintf(a.stdout, "\n%s\n", out.DDL)
		}
	}
	if err != nil {
		return err
	}

	if len(a.run.Apply) > 0 {
		return a.apply(ctx, table, desc.Columns)
	}
	return nil
}

// dialect resolves --dialect-config, falling back to --database.
func (a *app) dialect() (ddl.Dialect, error) {
	if a.run.DialectConfig != "" {
		d, err := ddl.LoadConfigDialect(a.run.DialectConfig)
		if err != nil {
			return nil, config.Errorf("dialect-config", "%v", err)
		}
		return d, nil
	}
	d, err := ddl.Lookup(a.run.Database)
	if err != nil {
		return nil, config.Errorf("database", "%v", err)
	}
	return d, nil
}

// apply executes the CREATE TABLE against every --apply target. Each target
// gets the DDL of its own built-in dialect unless --dialect-config is set.
func (a *app) apply(ctx context.Context, table string, cols []stats.Snapshot) error {
	if len(cols) == 0 {
		return errors.New("apply: no columns to create")
	}
	targets := make([]storage.Target, 0, len(a.run.Apply))
	for _, s := range a.run.Apply {
		t, err := storage.ParseTarget(s)
		if err != nil {
			return config.Errorf("apply", "%v", err)
		}
		targets = append(targets, t)
	}

	var override ddl.Dialect
	if a.run.DialectConfig != "" {
		d, err := a.dialect()
		if err != nil {
			return err
		}
		override = d
	}

	a.log.Info("applying DDL", zap.String("table", table), zap.Int("targets", len(targets)))
	return storage.ApplyAll(ctx, a.log, targets, func(kind string) (string, error) {
		d := override
		if d == nil {
			var err error
			if d, err = ddl.Lookup(kind); err != nil {
				return "", err
			}
		}
		return ddl.Generate(d, table, cols)
	})
}
