package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"file2ddl/internal/stats"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
)

// WriteTable renders columns as an aligned text table.
func WriteTable(w io.Writer, cols []stats.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Column\tType\tNulls\tTotal\tNull%\tMax Len")
	for _, c := range cols {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%d\n",
			c.Name, c.Type, c.NullCount, c.Total, c.NullPercent(), c.MaxLength)
	}
	return tw.Flush()
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReport renders a diagnose report for humans.
func WriteReport(w io.Writer, rep *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Total records:       %s\n", humanize.Comma(rep.Records))
	fmt.Fprintf(&b, "Expected fields:     %d\n", rep.Expected)
	fmt.Fprintf(&b, "Problematic records: %s\n", humanize.Comma(int64(rep.Problems)))
	if rep.Stopped {
		fmt.Fprintf(&b, "Stopped after %d problems; more may follow.\n", rep.Limit)
	}
	if rep.Clean() {
		b.WriteString("No issues found.\n")
	}

	for _, kind := range IssueKinds {
		n := rep.Counts[kind]
		if n == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s issues: %s\n", kind, humanize.Comma(int64(n)))
		for _, is := range rep.Examples[kind] {
			fmt.Fprintf(&b, "  line %d: %s\n    %s\n", is.Line, is.Detail, strconv.Quote(is.Content))
		}
		if extra := n - len(rep.Examples[kind]); extra > 0 {
			fmt.Fprintf(&b, "  ... and %s more\n", humanize.Comma(int64(extra)))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
