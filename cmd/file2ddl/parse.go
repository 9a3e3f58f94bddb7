package main

import (
	"context"

	"file2ddl/internal/pipeline"
	"file2ddl/internal/transform"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newParseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [input]",
		Short: "Rewrite a delimited file as canonical CSV",
		Long: `parse reads the input (a path, an http(s) URL, or - for stdin) and writes
comma separated, minimally quoted CSV. Null sentinels given with --fnull are
replaced by --tnull. Records with the wrong number of fields are rejected
according to --badmax and copied to --badfile.

Compressed input and output (.gz .zst .lz4 .xz) are handled by extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runParse(cmd.Context())
		},
	}
	addDialectFlags(cmd)

	f := cmd.Flags()
	f.StringP("output", "o", "-", "output path, - for stdout")
	f.StringArray("fnull", nil, "null sentinel to rewrite (repeatable, exact match)")
	f.String("tnull", "", "replacement written for null sentinels")
	f.String("sub-newline", "", "replace embedded newlines with this string and drop carriage returns")
	f.String("badfile", "", "write rejected records to this path")
	f.String("badmax", "0", "bad records to tolerate: a count, none or all")
	return cmd
}

func (a *app) runParse(ctx context.Context) (err error) {
	csvOpt, err := a.run.CSVOptions()
	if err != nil {
		return err
	}
	policy, err := a.run.Policy()
	if err != nil {
		return err
	}

	src, err := a.openInput(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := a.createOutput(a.run.Output)
	if err != nil {
		return err
	}
	defer closeInto(&err, dst)

	bad, err := a.badSink()
	if err != nil {
		return err
	}
	defer closeInto(&err, bad)

	counts, err := pipeline.Parse(ctx, a.env(), src, dst, pipeline.ParseConfig{
		CSV:       csvOpt,
		Header:    !a.run.NoHeader,
		Transform: a.run.TransformOptions(transform.ModeParse),
		Policy:    policy,
		BadSink:   writerOrNil(bad),
	})
	a.badRows = counts.BadRows
	if err != nil {
		return err
	}

	a.log.Info("parse finished",
		zap.Int64("rows", counts.Rows),
		zap.Int("bad_rows", counts.BadRows),
		zap.Int64("nulls", counts.Nulls),
	)
	return nil
}
