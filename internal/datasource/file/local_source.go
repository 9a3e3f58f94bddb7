// Package file implements the local input and output endpoints: files on
// disk and the process's standard streams.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading.
//
// A context that is already done short-circuits without touching the
// filesystem. Filesystem errors are wrapped with the path and still match
// errors.Is(err, os.ErrNotExist) and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// Stream is a data source over an already-open reader such as stdin. Closing
// what Open returns does not close the underlying reader.
type Stream struct{ r io.Reader }

// NewStream wraps r.
func NewStream(r io.Reader) *Stream { return &Stream{r: r} }

// Stdin returns a Stream over os.Stdin.
func Stdin() *Stream { return NewStream(os.Stdin) }

func (s *Stream) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(s.r), nil
}
