package file

import (
	"fmt"
	"io"
	"os"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NopWriteCloser returns w with a no-op Close.
func NopWriteCloser(w io.Writer) io.WriteCloser { return nopWriteCloser{w} }

// Create opens path for writing, truncating any existing file. An empty path
// or "-" writes to stdout, which Close leaves open.
func Create(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return NopWriteCloser(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
