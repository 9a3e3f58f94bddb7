package csv

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newReader(t testing.TB, in string, opt Options) *Reader {
	t.Helper()
	r, err := NewReader(strings.NewReader(in), opt)
	require.NoError(t, err)
	return r
}

// readAll drains r, collecting good records and row-local errors separately.
func readAll(t testing.TB, r *Reader) ([]Record, []*RecordError) {
	t.Helper()
	var recs []Record
	var bad []*RecordError
	for rec, err := range r.All() {
		if err != nil {
			var re *RecordError
			require.True(t, errors.As(err, &re), "unexpected error: %v", err)
			bad = append(bad, re)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, bad
}

func fieldsOf(recs []Record) [][]string {
	out := make([][]string, len(recs))
	for i, r := range recs {
		out[i] = r.Fields
	}
	return out
}

func TestReader_Grammar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		opt  Options
		want [][]string
	}{
		{
			name: "simple with trailing newline",
			in:   "a,b\n1,2\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "no trailing newline",
			in:   "a,b\n1,2",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "crlf and lone cr",
			in:   "a,b\r\n1,2\r3,4",
			want: [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}},
		},
		{
			name: "empty fields",
			in:   ",\na,,b\n",
			want: [][]string{{"", ""}, {"a", "", "b"}},
		},
		{
			name: "quoted delimiter and newline",
			in:   "\"a,b\",\"line1\nline2\"\n",
			want: [][]string{{"a,b", "line1\nline2"}},
		},
		{
			name: "quoted crlf kept verbatim",
			in:   "\"x\r\ny\"\n",
			want: [][]string{{"x\r\ny"}},
		},
		{
			name: "doubled quote",
			in:   `"say ""hi""",2` + "\n",
			want: [][]string{{`say "hi"`, "2"}},
		},
		{
			name: "escape char",
			in:   `"say \"hi\" \\ \x",2` + "\n",
			opt:  Options{Escape: '\\'},
			want: [][]string{{`say "hi" \ \x`, "2"}},
		},
		{
			name: "doubling still works with escape",
			in:   `"a""b"` + "\n",
			opt:  Options{Escape: '\\'},
			want: [][]string{{`a"b`}},
		},
		{
			name: "text after closing quote is kept",
			in:   `"ab"cd,e` + "\n",
			want: [][]string{{"abcd", "e"}},
		},
		{
			name: "quote inside unquoted field is literal",
			in:   `ab"c,d` + "\n",
			want: [][]string{{`ab"c`, "d"}},
		},
		{
			name: "leading space keeps quote literal",
			in:   ` "a",b` + "\n",
			want: [][]string{{` "a"`, "b"}},
		},
		{
			name: "quote style none",
			in:   `"a",b` + "\n",
			opt:  Options{Quote: QuoteNone},
			want: [][]string{{`"a"`, "b"}},
		},
		{
			name: "single quote style",
			in:   `'a,b',"c"` + "\n",
			opt:  Options{Quote: QuoteSingle},
			want: [][]string{{"a,b", `"c"`}},
		},
		{
			name: "custom delimiter",
			in:   "a|b|c\n",
			opt:  Options{Delimiter: '|'},
			want: [][]string{{"a", "b", "c"}},
		},
		{
			name: "lone quoted empty field",
			in:   "\"\"\n",
			want: [][]string{{""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			recs, bad := readAll(t, newReader(t, tt.in, tt.opt))
			require.Empty(t, bad)
			assert.Equal(t, tt.want, fieldsOf(recs))
		})
	}
}

func TestReader_LineNumbersAndBlankLines(t *testing.T) {
	t.Parallel()

	r := newReader(t, "h1,h2\n\n\"a\nb\",c\n\r\nx,y\n", Options{})
	recs, bad := readAll(t, r)
	require.Empty(t, bad)
	require.Len(t, recs, 3)

	assert.EqualValues(t, 1, recs[0].Line)
	assert.EqualValues(t, 3, recs[1].Line)
	assert.EqualValues(t, 6, recs[2].Line)
	assert.EqualValues(t, []int64{1, 2, 3}, []int64{recs[0].Seq, recs[1].Seq, recs[2].Seq})
}

func TestReader_ByteSpans(t *testing.T) {
	t.Parallel()

	in := "ab,c\r\n\"x\"\n"
	recs, _ := readAll(t, newReader(t, in, Options{}))
	require.Len(t, recs, 2)
	assert.Equal(t, "ab,c", in[recs[0].Start:recs[0].End])
	assert.Equal(t, `"x"`, in[recs[1].Start:recs[1].End])
}

func TestReader_StripsBOM(t *testing.T) {
	t.Parallel()

	recs, _ := readAll(t, newReader(t, utf8BOM+"id,name\n1,a\n", Options{}))
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"id", "name"}, recs[0].Fields)
	assert.EqualValues(t, 3, recs[0].Start)
}

func TestReader_UnterminatedQuoteAtEOF(t *testing.T) {
	t.Parallel()

	recs, bad := readAll(t, newReader(t, "a,\"open\nstill", Options{}))
	require.Empty(t, bad)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Unterminated)
	assert.Equal(t, []string{"a", "open\nstill"}, recs[0].Fields)
}

func TestReader_MaxLineLengthBoundary(t *testing.T) {
	t.Parallel()

	r := newReader(t, "abcde\nabcdef\nxy\n", Options{MaxLineLength: 5})

	rec, err := r.Next()
	require.NoError(t, err, "exactly at the bound succeeds")
	assert.Equal(t, []string{"abcde"}, rec.Fields)

	_, err = r.Next()
	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ReasonLineTooLong, re.Reason)
	assert.ErrorIs(t, err, ErrLineTooLong)
	assert.EqualValues(t, 2, re.Line)
	assert.Equal(t, "abcde", re.Raw)

	rec, err = r.Next()
	require.NoError(t, err, "reader resumes at the next record")
	assert.Equal(t, []string{"xy"}, rec.Fields)
	assert.EqualValues(t, 3, rec.Line)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_ZeroMaxLineLengthUsesDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultMaxLineLength, Options{}.withDefaults().MaxLineLength)

	long := strings.Repeat("x", 64*1024)
	r := newReader(t, long+"\n", Options{MaxLineLength: 0})
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{long}, rec.Fields)
}

func TestReader_MaxLineLengthSpansQuotedLines(t *testing.T) {
	t.Parallel()

	in := "\"aaaa\nbbbb\ncccc\",d\nok\n"
	r := newReader(t, in, Options{MaxLineLength: 8})

	_, err := r.Next()
	var re *RecordError
	require.ErrorAs(t, err, &re)
	assert.EqualValues(t, 1, re.Line)
	assert.Len(t, re.Raw, 8)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, rec.Fields)
	assert.EqualValues(t, 4, rec.Line)
}

func TestReader_InvalidUTF8(t *testing.T) {
	t.Parallel()

	r := newReader(t, "a\n\xff\xfe\nb\n", Options{})
	recs, bad := readAll(t, r)
	require.Len(t, bad, 1)
	assert.Equal(t, ReasonDecode, bad[0].Reason)
	assert.EqualValues(t, 2, bad[0].Line)
	assert.ErrorIs(t, bad[0], ErrDecode)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, fieldsOf(recs))
}

func TestReader_Latin1Decoding(t *testing.T) {
	t.Parallel()

	r := newReader(t, "caf\xe9,x\n", Options{Encoding: "iso-8859-1"})
	recs, bad := readAll(t, r)
	require.Empty(t, bad)
	assert.Equal(t, [][]string{{"café", "x"}}, fieldsOf(recs))
}

func TestNewReader_UnknownEncoding(t *testing.T) {
	t.Parallel()

	_, err := NewReader(strings.NewReader(""), Options{Encoding: "klingon-8"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestReader_SourceErrorStopsIteration(t *testing.T) {
	t.Parallel()

	r, err := NewReader(failingReader{}, Options{})
	require.NoError(t, err)

	n := 0
	for _, err := range r.All() {
		n++
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk on fire")
	}
	assert.Equal(t, 1, n)
}

func TestReader_EarlyStop(t *testing.T) {
	t.Parallel()

	r := newReader(t, "1\n2\n3\n", Options{})
	for rec := range r.All() {
		assert.Equal(t, []string{"1"}, rec.Fields)
		break
	}
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, rec.Fields)
}

func TestParseQuoteStyle(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]QuoteStyle{"": QuoteDouble, "double": QuoteDouble, "single": QuoteSingle, "none": QuoteNone} {
		got, err := ParseQuoteStyle(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseQuoteStyle("backtick")
	assert.Error(t, err)
}

func genField() *rapid.Generator[string] {
	return rapid.StringOf(rapid.SampledFrom([]rune{'a', 'Z', '0', ' ', ',', '"', '\'', '\n', '\r', 'é', '|'}))
}

func TestRoundTrip_CanonicalIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fields := rapid.SliceOfN(genField(), 1, 6).Draw(t, "fields")

		var buf bytes.Buffer
		w := NewWriter(&buf)
		if err := w.Write(fields); err != nil {
			t.Fatal(err)
		}
		if err := w.Flush(); err != nil {
			t.Fatal(err)
		}

		r, err := NewReader(&buf, Options{})
		if err != nil {
			t.Fatal(err)
		}
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("reparse %q: %v", fields, err)
		}
		if len(rec.Fields) != len(fields) {
			t.Fatalf("got %q want %q", rec.Fields, fields)
		}
		for i := range fields {
			if rec.Fields[i] != fields[i] {
				t.Fatalf("field %d: got %q want %q", i, rec.Fields[i], fields[i])
			}
		}
		if _, err := r.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("expected a single record, got err=%v", err)
		}
	})
}

var benchmarkSink Record

func BenchmarkReader_Next(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		sb.WriteString("12345,\"quoted, field\",2024-01-31,some text here\n")
	}
	data := sb.String()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r, err := NewReader(strings.NewReader(data), Options{})
		if err != nil {
			b.Fatal(err)
		}
		for {
			rec, err := r.Next()
			if err != nil {
				break
			}
			benchmarkSink = rec
		}
	}
}
