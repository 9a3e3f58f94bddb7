package config

import (
	"errors"
	"fmt"
	"strings"

	"file2ddl/internal/badrow"
	"file2ddl/internal/ddl"
	"file2ddl/internal/detect"
	"file2ddl/internal/parser/csv"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is logged and the run continues.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path names the flag.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ErrConfig is wrapped by every *ConfigError.
var ErrConfig = errors.New("invalid configuration")

// ConfigError carries the blocking issues of a Run.
type ConfigError struct {
	Issues []Issue
}

func (e *ConfigError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, iss := range e.Issues {
		msgs[i] = iss.Error()
	}
	return "config: " + strings.Join(msgs, "; ")
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// Errorf wraps a single configuration problem found outside Validate, such as
// a dialect file that fails to load.
func Errorf(path, format string, args ...any) error {
	return &ConfigError{Issues: []Issue{{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}}}
}

// Check runs Validate and returns a *ConfigError when any issue is an error,
// along with the warnings so callers can log them.
func Check(r Run) (warnings []Issue, err error) {
	var errs []Issue
	for _, iss := range Validate(r) {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		} else {
			warnings = append(warnings, iss)
		}
	}
	if len(errs) > 0 {
		return warnings, &ConfigError{Issues: errs}
	}
	return warnings, nil
}

// Validate lints r without mutating it. The caller decides whether warnings
// are fatal.
func Validate(r Run) []Issue {
	var issues []Issue
	issues = append(issues, validateDialect(r)...)
	issues = append(issues, validateInference(r)...)
	issues = append(issues, validateOutput(r)...)
	issues = append(issues, validateMetrics(r.Metrics)...)
	return issues
}

func validateDialect(r Run) []Issue {
	var issues []Issue

	opt, err := r.CSVOptions()
	if err != nil {
		issues = append(issues, Issue{Severity: SeverityError, Path: "delimiter", Message: err.Error()})
		return issues
	}
	switch opt.Delimiter {
	case '\n', '\r':
		issues = append(issues, Issue{SeverityError, "delimiter", "delimiter must not be a line break"})
	}
	if q := opt.Quote.Byte(); q != 0 && opt.Delimiter == q {
		issues = append(issues, Issue{SeverityError, "delimiter", "delimiter must differ from the quote character"})
	}
	if opt.Escape != 0 {
		switch {
		case opt.Quote == csv.QuoteNone:
			issues = append(issues, Issue{SeverityWarning, "escquote", "escape has no effect when quoting is disabled"})
		case opt.Escape == opt.Quote.Byte():
			issues = append(issues, Issue{SeverityWarning, "escquote", "escape equals the quote character; doubled quotes already cover this"})
		case opt.Escape == opt.Delimiter:
			issues = append(issues, Issue{SeverityError, "escquote", "escape must differ from the delimiter"})
		}
	}
	// 0 selects csv.DefaultMaxLineLength.
	if r.MaxLineLength < 0 {
		issues = append(issues, Issue{SeverityError, "max-line-length", "must not be negative (0 selects the 1 MiB default)"})
	}
	if _, err := csv.NewReader(strings.NewReader(""), opt); err != nil {
		issues = append(issues, Issue{SeverityError, "encoding", err.Error()})
	}
	if _, err := badrow.ParsePolicy(r.BadMax); err != nil {
		issues = append(issues, Issue{SeverityError, "badmax", err.Error()})
	}
	return issues
}

func validateInference(r Run) []Issue {
	var issues []Issue
	if _, err := detect.New(r.DetectOptions()); err != nil {
		issues = append(issues, Issue{SeverityError, "fdate", err.Error()})
	}
	t, f := orDefault(r.TrueLiteral, detect.DefaultTrue), orDefault(r.FalseLiteral, detect.DefaultFalse)
	if t == f {
		issues = append(issues, Issue{SeverityError, "ftrue", "true and false literals must differ"})
	}
	for _, n := range r.NullFrom {
		if n == t || n == f {
			issues = append(issues, Issue{SeverityWarning, "fnull", fmt.Sprintf("null sentinel %q shadows a boolean literal", n)})
		}
	}
	if r.Fields < 0 {
		issues = append(issues, Issue{SeverityError, "fields", "must not be negative"})
	}
	return issues
}

func validateOutput(r Run) []Issue {
	var issues []Issue
	switch r.Format {
	case "", "table", "json":
	default:
		issues = append(issues, Issue{SeverityError, "format", fmt.Sprintf("unknown format %q (want table or json)", r.Format)})
	}
	if r.DialectConfig == "" && r.Database != "" {
		if _, err := ddl.Lookup(r.Database); err != nil {
			issues = append(issues, Issue{SeverityError, "database", err.Error()})
		}
	}
	if r.DialectConfig != "" && r.Database != "" {
		issues = append(issues, Issue{SeverityWarning, "dialect-config", "overrides --database"})
	}
	for _, a := range r.Apply {
		name, dsn, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(dsn) == "" {
			issues = append(issues, Issue{SeverityError, "apply", fmt.Sprintf("%q must look like dialect=DSN", a)})
		}
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{SeverityError, "pushgateway-url", "required for the pushgateway backend"})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{SeverityError, "datadog-addr", "required for the datadog backend"})
		}
	default:
		issues = append(issues, Issue{SeverityError, "metrics-backend", fmt.Sprintf("unknown backend %q (want none, pushgateway or datadog)", m.Backend)})
	}
	return issues
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
