package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"file2ddl/internal/badrow"
	"file2ddl/internal/config"
	"file2ddl/internal/datasource"
	"file2ddl/internal/datasource/file"
	"file2ddl/internal/datasource/httpds"
	"file2ddl/internal/logging"
	"file2ddl/internal/metrics"
	"file2ddl/internal/metrics/datadog"
	"file2ddl/internal/metrics/prompush"
	"file2ddl/internal/parser/csv"
	"file2ddl/internal/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "FILE2DDL"

// app is the state shared by the subcommands of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	v       *viper.Viper
	cfgFile string
	run     config.Run

	runID string
	log   *zap.Logger
	rec   *metrics.Recorder
	http  *httpds.Client

	// badRows is the number of rejected records (or diagnose problems) of
	// the finished command.
	badRows int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		v:      viper.New(),
		log:    zap.NewNop(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "file2ddl",
		Short: "Normalize delimited files and infer SQL DDL from their contents",
		Long: `file2ddl reads delimited text (CSV, TSV, ...) in a single streaming pass.

  parse     rewrites the input as canonical CSV, rewriting null sentinels
  describe  infers the narrowest SQL type per column and can emit CREATE TABLE
  diagnose  reports structural and encoding problems without writing output

Flags may also come from --config or FILE2DDL_<FLAG> environment variables
(dashes become underscores, e.g. FILE2DDL_MAX_LINE_LENGTH).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, args)
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.BoolP("verbose", "v", false, "debug logging; describe also logs initial types and promotions")
	pf.String("log-format", logging.FormatConsole, "log encoding: console or json")
	pf.String("metrics-backend", "none", "metrics backend: none, pushgateway or datadog")
	pf.String("metrics-job", "file2ddl", "job label attached to every metric")
	pf.String("pushgateway-url", "", "Pushgateway base URL, e.g. http://localhost:9091")
	pf.String("datadog-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")

	root.AddCommand(newParseCmd(a), newDescribeCmd(a), newDiagnoseCmd(a))
	return root
}

// addDialectFlags registers the tokenizer flags every subcommand shares.
func addDialectFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("delimiter", ",", `field delimiter: one byte, or \t`)
	f.String("quote", "double", "quote style: double, single or none")
	f.String("escquote", "", "escape byte inside quoted fields (default none)")
	f.String("encoding", "utf-8", "source encoding as a WHATWG label, e.g. windows-1252 or utf-16le")
	f.Int("max-line-length", csv.DefaultMaxLineLength, "maximum bytes in one record; 0 selects the 1 MiB default")
	f.Bool("noheader", false, "treat the first record as data")
}

// setup resolves flags, config file and environment into a.run, then builds
// the logger and metrics recorder for the command about to run.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config.Errorf("config", "read %s: %v", a.cfgFile, err)
		}
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config.Errorf("flags", "%v", err)
	}
	if err := v.Unmarshal(&a.run); err != nil {
		return config.Errorf("config", "decode: %v", err)
	}
	if len(args) > 0 {
		a.run.Input = args[0]
	}
	a.run.NullFrom = a.stringArray(cmd, "fnull")
	a.run.Apply = a.stringArray(cmd, "apply")
	a.run.SubNewlineSet = v.IsSet("sub-newline")

	log, err := logging.New(a.stderr, logging.Options{Format: a.run.LogFormat, Verbose: a.run.Verbose})
	if err != nil {
		return config.Errorf("log-format", "%v", err)
	}
	a.runID = uuid.NewString()
	a.log = log.With(zap.String("run_id", a.runID), zap.String("cmd", cmd.Name()))

	warnings, err := config.Check(a.run)
	for _, w := range warnings {
		a.log.Warn("configuration warning", zap.String("flag", w.Path), zap.String("message", w.Message))
	}
	if err != nil {
		return err
	}

	b, err := a.metricsBackend()
	if err != nil {
		return err
	}
	a.rec = metrics.NewRecorder(b, a.run.Metrics.Job)
	a.http = httpds.NewClient(httpds.Config{MaxRetries: 3})

	a.log.Debug("configuration resolved",
		zap.String("input", a.run.Input),
		zap.String("config_file", v.ConfigFileUsed()),
		zap.String("metrics_backend", a.run.Metrics.Backend),
	)
	return nil
}

// stringArray reads a repeatable flag. Viper is consulted only when the
// value came from the environment or a config file. The flag value is read
// through pflag.SliceValue because GetStringArray round-trips it through CSV,
// which turns [""] into an empty slice.
func (a *app) stringArray(cmd *cobra.Command, name string) []string {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		return nil
	}
	if !f.Changed && a.v.IsSet(name) {
		return a.v.GetStringSlice(name)
	}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return sv.GetSlice()
	}
	return nil
}

func (a *app) metricsBackend() (metrics.Backend, error) {
	m := a.run.Metrics
	switch m.Backend {
	case "pushgateway":
		b, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			return nil, config.Errorf("pushgateway-url", "%v", err)
		}
		return b.Grouping("run_id", a.runID), nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  "file2ddl.",
			GlobalTags: []string{"run_id:" + a.runID},
		})
		if err != nil {
			return nil, config.Errorf("datadog-addr", "%v", err)
		}
		return b, nil
	}
	return nil, nil
}

func (a *app) env() pipeline.Env {
	return pipeline.Env{Log: a.log, Verbose: a.run.Verbose, Metrics: a.rec}
}

func (a *app) openInput(ctx context.Context) (io.ReadCloser, error) {
	return datasource.Open(ctx, a.run.Input, a.http)
}

// createOutput opens location for writing; stdio goes to a.stdout.
func (a *app) createOutput(location string) (io.WriteCloser, error) {
	if datasource.IsStdio(location) {
		return file.NopWriteCloser(a.stdout), nil
	}
	return datasource.Create(location)
}

// badSink opens --badfile, or returns nil when none was given.
func (a *app) badSink() (io.WriteCloser, error) {
	if a.run.BadFile == "" {
		return nil, nil
	}
	return datasource.Create(a.run.BadFile)
}

// close flushes metrics and logs. It runs once, after the command returned.
func (a *app) close() {
	if err := a.rec.Flush(); err != nil {
		a.log.Warn("metrics flush failed", zap.Error(err))
	}
	_ = a.log.Sync()
}

// finish reports err, flushes metrics and logs, and returns the exit status.
// An exhausted bad-row tolerance is logged rather than printed as a failure.
func (a *app) finish(err error) int {
	var abort *badrow.AbortError
	switch {
	case errors.As(err, &abort):
		a.log.Error("bad-row tolerance exceeded", zap.Error(abort))
	case err != nil:
		a.reportError(err)
	}
	a.close()
	return exitCode(err, a.badRows)
}

func (a *app) reportError(err error) {
	fmt.Fprintf(a.stderr, "file2ddl: %v\n", err)
}

// closeInto closes c and keeps the first error in *err.
func closeInto(err *error, c io.Closer) {
	if c == nil {
		return
	}
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

// writerOrNil avoids handing a typed nil to an io.Writer parameter.
func writerOrNil(wc io.WriteCloser) io.Writer {
	if wc == nil {
		return nil
	}
	return wc
}
