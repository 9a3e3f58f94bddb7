package main

import (
	"context"
	"math"
	"strings"

	"file2ddl/internal/badrow"
	"file2ddl/internal/config"
	"file2ddl/internal/pipeline"

	"github.com/spf13/cobra"
)

func newDiagnoseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose [input]",
		Short: "Report structural and encoding problems",
		Long: `diagnose scans the input without writing it and groups problems by kind:
field count, unterminated quotes, encoding and line length. Up to five
examples are shown per kind. The scan stops after --badmax problems.

The exit status is 0 for a clean file and 1 when problems were found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiagnose(cmd.Context())
		},
	}
	addDialectFlags(cmd)

	f := cmd.Flags()
	f.Int("fields", 0, "expected fields per record (default: width of the first record)")
	f.String("badmax", "100", "stop after this many problems (or all)")
	f.String("format", "table", "output format: table or json")
	return cmd
}

func (a *app) runDiagnose(ctx context.Context) error {
	csvOpt, err := a.run.CSVOptions()
	if err != nil {
		return err
	}
	limit, err := diagnoseLimit(a.run.BadMax)
	if err != nil {
		return err
	}

	src, err := a.openInput(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	rep, err := pipeline.Diagnose(ctx, a.env(), src, pipeline.DiagnoseConfig{
		CSV:    csvOpt,
		Fields: a.run.Fields,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	a.badRows = rep.Problems

	if a.run.Format == "json" {
		return pipeline.WriteJSON(a.stdout, rep)
	}
	return pipeline.WriteReport(a.stdout, rep)
}

// diagnoseLimit turns --badmax into a problem limit. "all" never stops; an
// empty or zero value uses the default.
func diagnoseLimit(badmax string) (int, error) {
	if strings.TrimSpace(badmax) == "" {
		return pipeline.DefaultDiagnoseLimit, nil
	}
	p, err := badrow.ParsePolicy(badmax)
	if err != nil {
		return 0, config.Errorf("badmax", "%v", err)
	}
	if p.Unlimited {
		return math.MaxInt, nil
	}
	return p.Limit, nil
}
