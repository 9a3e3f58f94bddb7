// Package config defines the resolved settings for one file2ddl run and the
// helpers that turn them into component options.
//
// Values arrive from cobra flags, an optional config file and FILE2DDL_*
// environment variables (merged by viper in cmd/file2ddl). Run is the single
// place they land; Validate lints it before any input is opened.
package config

import (
	"fmt"

	"file2ddl/internal/badrow"
	"file2ddl/internal/detect"
	"file2ddl/internal/parser/csv"
	"file2ddl/internal/transform"
)

// Run holds every setting a command may use. Fields a command does not use
// are left at their zero value.
type Run struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`

	Delimiter     string `mapstructure:"delimiter"`
	Quote         string `mapstructure:"quote"`
	Escape        string `mapstructure:"escquote"`
	Encoding      string `mapstructure:"encoding"`
	MaxLineLength int    `mapstructure:"max-line-length"`
	NoHeader      bool   `mapstructure:"noheader"`

	NullFrom      []string `mapstructure:"fnull"`
	NullTo        string   `mapstructure:"tnull"`
	SubNewline    string   `mapstructure:"sub-newline"`
	SubNewlineSet bool     `mapstructure:"-"`

	BadFile string `mapstructure:"badfile"`
	BadMax  string `mapstructure:"badmax"`

	TrueLiteral     string `mapstructure:"ftrue"`
	FalseLiteral    string `mapstructure:"ffalse"`
	DatePattern     string `mapstructure:"fdate"`
	TimePattern     string `mapstructure:"ftime"`
	DateTimePattern string `mapstructure:"fdatetime"`

	Format        string   `mapstructure:"format"`
	DDL           bool     `mapstructure:"ddl"`
	Database      string   `mapstructure:"database"`
	DialectConfig string   `mapstructure:"dialect-config"`
	Table         string   `mapstructure:"table"`
	Apply         []string `mapstructure:"apply"`

	Fields int `mapstructure:"fields"`

	Verbose   bool   `mapstructure:"verbose"`
	LogFormat string `mapstructure:"log-format"`

	Metrics `mapstructure:",squash"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	Backend        string `mapstructure:"metrics-backend"`
	Job            string `mapstructure:"metrics-job"`
	PushgatewayURL string `mapstructure:"pushgateway-url"`
	DatadogAddr    string `mapstructure:"datadog-addr"`
}

// CSVOptions converts the dialect settings to tokenizer options. Call
// Validate first; malformed values are reported here as well.
func (r Run) CSVOptions() (csv.Options, error) {
	q, err := csv.ParseQuoteStyle(r.Quote)
	if err != nil {
		return csv.Options{}, err
	}
	delim, err := singleByte("delimiter", r.Delimiter, ',')
	if err != nil {
		return csv.Options{}, err
	}
	esc, err := singleByte("escquote", r.Escape, 0)
	if err != nil {
		return csv.Options{}, err
	}
	return csv.Options{
		Delimiter:     delim,
		Quote:         q,
		Escape:        esc,
		Encoding:      r.Encoding,
		MaxLineLength: r.MaxLineLength,
	}, nil
}

// Policy parses BadMax.
func (r Run) Policy() (badrow.Policy, error) {
	return badrow.ParsePolicy(r.BadMax)
}

// DetectOptions returns the detector literals and patterns.
func (r Run) DetectOptions() detect.Options {
	return detect.Options{
		TrueLiteral:     r.TrueLiteral,
		FalseLiteral:    r.FalseLiteral,
		DatePattern:     r.DatePattern,
		TimePattern:     r.TimePattern,
		DateTimePattern: r.DateTimePattern,
	}
}

// TransformOptions returns the transformer options for mode.
func (r Run) TransformOptions(mode transform.Mode) transform.Options {
	return transform.Options{
		Mode:          mode,
		Nulls:         transform.NullMapping{From: r.NullFrom, To: r.NullTo},
		SubNewline:    r.SubNewline,
		SubNewlineSet: r.SubNewlineSet,
	}
}

// singleByte accepts one byte, or the escapes \t and "tab".
func singleByte(name, s string, def byte) (byte, error) {
	switch s {
	case "":
		return def, nil
	case `\t`, "tab":
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("%s must be a single byte, got %q", name, s)
	}
	return s[0], nil
}
