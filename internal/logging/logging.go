// Package logging builds the zap logger used by the file2ddl commands.
//
// Logs always go to a diagnostic stream (stderr in the CLI) so that stdout
// stays reserved for CSV and DDL output.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configure New.
type Options struct {
	// Format is "console" (default) or "json".
	Format string
	// Verbose lowers the level to debug.
	Verbose bool
}

// New returns a logger writing to w.
func New(w io.Writer, opt Options) (*zap.Logger, error) {
	enc, err := encoder(opt.Format)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if opt.Verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddStacktrace(zapcore.FatalLevel)), nil
}

func encoder(format string) (zapcore.Encoder, error) {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	switch strings.ToLower(format) {
	case "", FormatConsole:
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	case FormatJSON:
		return zapcore.NewJSONEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q (want console or json)", format)
	}
}
