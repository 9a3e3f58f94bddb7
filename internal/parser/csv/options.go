// Package csv implements the streaming record tokenizer and the canonical
// writer.
//
// The Reader is a hand-written byte state machine. It supports a configurable
// delimiter, quote style and escape byte, streams non-UTF-8 input through a
// decoder, and bounds the bytes held for any one logical record. Row-local
// problems are returned as *RecordError values and leave the Reader usable,
// so callers decide whether to skip the row or stop.
package csv

import (
	"errors"
	"fmt"
)

// QuoteStyle selects the quote byte.
type QuoteStyle uint8

const (
	QuoteDouble QuoteStyle = iota
	QuoteSingle
	QuoteNone
)

// ParseQuoteStyle maps double|single|none to a QuoteStyle.
func ParseQuoteStyle(s string) (QuoteStyle, error) {
	switch s {
	case "", "double", "\"":
		return QuoteDouble, nil
	case "single", "'":
		return QuoteSingle, nil
	case "none":
		return QuoteNone, nil
	}
	return QuoteDouble, fmt.Errorf("csv: unknown quote style %q (want double, single or none)", s)
}

func (q QuoteStyle) String() string {
	switch q {
	case QuoteSingle:
		return "single"
	case QuoteNone:
		return "none"
	default:
		return "double"
	}
}

// Byte returns the quote byte, or 0 for QuoteNone.
func (q QuoteStyle) Byte() byte {
	switch q {
	case QuoteSingle:
		return '\''
	case QuoteNone:
		return 0
	default:
		return '"'
	}
}

const (
	// DefaultMaxLineLength bounds one logical record (1 MiB).
	DefaultMaxLineLength = 1 << 20
	// DefaultBufferSize is the bufio size used when none is given.
	DefaultBufferSize = 64 << 10
)

// Options configures a Reader. The zero value reads comma separated,
// double-quoted UTF-8 with the default line bound.
type Options struct {
	Delimiter     byte
	Quote         QuoteStyle
	Escape        byte
	Encoding      string
	MaxLineLength int
	BufferSize    int
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.Encoding == "" {
		o.Encoding = "utf-8"
	}
	if o.MaxLineLength <= 0 {
		o.MaxLineLength = DefaultMaxLineLength
	}
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	return o
}

// Reason tags why a record was rejected.
type Reason string

const (
	ReasonFieldCount  Reason = "field_count"
	ReasonLineTooLong Reason = "line_too_long"
	ReasonDecode      Reason = "decode"
)

var (
	// ErrLineTooLong is wrapped by RecordError for oversized records.
	ErrLineTooLong = errors.New("line too long")
	// ErrDecode is wrapped by RecordError for undecodable bytes.
	ErrDecode = errors.New("invalid byte sequence for encoding")
)

// RecordError reports a row-local failure. The Reader remains usable after
// returning one.
type RecordError struct {
	Line   int64  // physical line where the record starts
	Seq    int64  // record sequence number
	Reason Reason // classification for bad-row handling
	Raw    string // record bytes, truncated to the max line length
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("csv: line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
