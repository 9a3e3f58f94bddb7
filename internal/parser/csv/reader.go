package csv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUnsupportedEncoding is wrapped when the encoding label is unknown.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

var replacementChar = []byte(string(utf8.RuneError))

// Record is one logical record. Fields are fresh strings the caller may keep;
// the Record itself is meant to be consumed before the next call to Next.
type Record struct {
	Fields []string
	Line   int64 // physical line where the record starts (1-based)
	Seq    int64 // 1-based position among all records read
	Start  int64 // byte offset of the first byte, in the decoded stream
	End    int64 // byte offset just past the last byte, terminator excluded

	// Unterminated is set when input ended inside an open quote. The fields
	// hold everything read up to EOF.
	Unterminated bool
}

// Reader tokenizes a byte stream into records. It is single-pass and not safe
// for concurrent use.
type Reader struct {
	br     *bufio.Reader
	opt    Options
	quote  byte
	isUTF8 bool

	line   int64
	offset int64
	seq    int64

	// per-record scratch, reused across calls
	raw     []byte
	field   []byte
	ends    []int
	n       int
	tooLong bool
}

// NewReader wraps src. The encoding label is resolved through the WHATWG
// index; non-UTF-8 input is decoded on the fly.
func NewReader(src io.Reader, opt Options) (*Reader, error) {
	opt = opt.withDefaults()

	enc, err := htmlindex.Get(opt.Encoding)
	if err != nil {
		return nil, fmt.Errorf("csv: %w %q", ErrUnsupportedEncoding, opt.Encoding)
	}
	name, _ := htmlindex.Name(enc)
	isUTF8 := name == "utf-8"
	if !isUTF8 {
		src = transform.NewReader(src, enc.NewDecoder())
	}

	r := &Reader{
		br:     bufio.NewReaderSize(src, opt.BufferSize),
		opt:    opt,
		quote:  opt.Quote.Byte(),
		isUTF8: isUTF8,
		line:   1,
	}
	r.skipBOM()
	return r, nil
}

// Options returns the resolved options.
func (r *Reader) Options() Options { return r.opt }

// Raw returns the bytes of the record most recently read, terminator excluded
// and truncated to the max line length.
func (r *Reader) Raw() string { return string(r.raw) }

// Line returns the physical line the reader is positioned on.
func (r *Reader) Line() int64 { return r.line }

// Next returns the next record, io.EOF at end of input, a *RecordError for a
// row-local failure (the reader stays usable), or any other error for a
// failing source.
func (r *Reader) Next() (Record, error) {
	r.raw = r.raw[:0]
	r.field = r.field[:0]
	r.ends = r.ends[:0]
	r.n = 0
	r.tooLong = false

	startLine, start := r.line, r.offset
	fieldAt := 0
	inQuotes, unterminated := false, false

scan:
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return Record{}, fmt.Errorf("csv: read near line %d: %w", r.line, err)
			}
			if r.n == 0 {
				return Record{}, io.EOF
			}
			unterminated = inQuotes
			break scan
		}
		r.offset++

		if inQuotes {
			switch {
			case b == r.quote:
				r.keep(b)
				if r.peekIs(r.quote) {
					r.advance()
					r.keep(b)
					r.emit(b)
				} else {
					inQuotes = false
				}
			case r.opt.Escape != 0 && b == r.opt.Escape:
				r.keep(b)
				if next, ok := r.peek(); ok && (next == r.quote || next == r.opt.Escape) {
					r.advance()
					r.keep(next)
					r.emit(next)
				} else {
					r.emit(b)
				}
			case b == '\r':
				r.keep(b)
				r.emit(b)
				if r.peekIs('\n') {
					r.advance()
					r.keep('\n')
					r.emit('\n')
				}
				r.line++
			case b == '\n':
				r.keep(b)
				r.emit(b)
				r.line++
			default:
				r.keep(b)
				r.emit(b)
			}
			continue
		}

		switch {
		case b == r.opt.Delimiter:
			r.keep(b)
			r.ends = append(r.ends, len(r.field))
			fieldAt = r.n
		case b == '\n' || b == '\r':
			if b == '\r' && r.peekIs('\n') {
				r.advance()
			}
			r.line++
			if r.n == 0 {
				// blank line: skip it, the record starts on the next one
				startLine, start = r.line, r.offset
				continue
			}
			break scan
		case r.quote != 0 && b == r.quote && r.n == fieldAt:
			r.keep(b)
			inQuotes = true
		default:
			r.keep(b)
			r.emit(b)
		}
	}
	r.ends = append(r.ends, len(r.field))
	r.seq++

	if r.tooLong {
		return Record{}, &RecordError{
			Line:   startLine,
			Seq:    r.seq,
			Reason: ReasonLineTooLong,
			Raw:    string(r.raw),
			Err:    fmt.Errorf("%w: exceeds %d bytes", ErrLineTooLong, r.opt.MaxLineLength),
		}
	}
	if (r.isUTF8 && !utf8.Valid(r.raw)) || (!r.isUTF8 && bytes.Contains(r.raw, replacementChar)) {
		return Record{}, &RecordError{
			Line:   startLine,
			Seq:    r.seq,
			Reason: ReasonDecode,
			Raw:    string(r.raw),
			Err:    fmt.Errorf("%w %s", ErrDecode, r.opt.Encoding),
		}
	}

	s := string(r.field)
	fields := make([]string, len(r.ends))
	prev := 0
	for i, end := range r.ends {
		fields[i] = s[prev:end]
		prev = end
	}
	return Record{
		Fields:       fields,
		Line:         startLine,
		Seq:          r.seq,
		Start:        start,
		End:          start + int64(r.n),
		Unterminated: unterminated,
	}, nil
}

// All adapts Next to a range-over-func sequence. Iteration stops at EOF or
// after yielding a non-row-local error.
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) {
				return
			}
			var re *RecordError
			if err != nil && !errors.As(err, &re) {
				return
			}
		}
	}
}

// keep accounts one consumed record byte against the line bound.
func (r *Reader) keep(b byte) {
	r.n++
	if r.n > r.opt.MaxLineLength {
		r.tooLong = true
		return
	}
	r.raw = append(r.raw, b)
}

// emit appends b to the current field value.
func (r *Reader) emit(b byte) {
	if r.tooLong {
		return
	}
	r.field = append(r.field, b)
}

func (r *Reader) peek() (byte, bool) {
	b, err := r.br.Peek(1)
	if err != nil {
		return 0, false
	}
	return b[0], true
}

func (r *Reader) peekIs(c byte) bool {
	b, ok := r.peek()
	return ok && b == c
}

func (r *Reader) advance() {
	if _, err := r.br.ReadByte(); err == nil {
		r.offset++
	}
}
