package csv

import (
	"bufio"
	"io"
	"strings"
)

// Writer emits records in canonical form: comma separated, double-quoted only
// when a field contains a comma, a quote, CR or LF, with embedded quotes
// doubled and each record terminated by LF.
//
// encoding/csv.Writer also quotes fields with a leading space, which would
// break the quote-only-when-needed rule, so this writer is separate.
type Writer struct {
	w *bufio.Writer
}

// NewWriter buffers writes to w. Call Flush when done.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// NeedsQuotes reports whether s must be quoted in canonical form.
func NeedsQuotes(s string) bool {
	return strings.ContainsAny(s, ",\"\r\n")
}

// Write emits one record. A lone empty field is written as "" so the line
// does not read back as blank.
func (w *Writer) Write(fields []string) error {
	if len(fields) == 1 && fields[0] == "" {
		_, err := w.w.WriteString("\"\"\n")
		return err
	}
	for i, f := range fields {
		if i > 0 {
			w.w.WriteByte(',')
		}
		if !NeedsQuotes(f) {
			w.w.WriteString(f)
			continue
		}
		w.w.WriteByte('"')
		w.w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.w.WriteByte('"')
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
