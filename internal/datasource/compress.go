package datasource

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Compression identifies a stream codec.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
	XZ
)

var compressionNames = [...]string{"none", "gzip", "zstd", "lz4", "xz"}

func (c Compression) String() string {
	if c < 0 || int(c) >= len(compressionNames) {
		return fmt.Sprintf("Compression(%d)", int(c))
	}
	return compressionNames[c]
}

// CompressionOf picks a codec from the extension of name. URL query strings
// and fragments are ignored.
func CompressionOf(name string) Compression {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".lz4":
		return LZ4
	case ".xz":
		return XZ
	default:
		return None
	}
}

// Decompress wraps rc in a decoder for c. Closing the result closes rc.
func Decompress(c Compression, rc io.ReadCloser) (io.ReadCloser, error) {
	switch c {
	case None:
		return rc, nil
	case Gzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case Zstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: zr, closers: []io.Closer{closerFunc(zr.Close), rc}}, nil
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(rc), closers: []io.Closer{rc}}, nil
	case XZ:
		xr, err := xz.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &readCloser{Reader: xr, closers: []io.Closer{rc}}, nil
	default:
		return nil, fmt.Errorf("datasource: unsupported compression %s", c)
	}
}

// Compress wraps wc in an encoder for c. Closing the result flushes the
// encoder and closes wc.
func Compress(c Compression, wc io.WriteCloser) (io.WriteCloser, error) {
	switch c {
	case None:
		return wc, nil
	case Gzip:
		zw := gzip.NewWriter(wc)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	case Zstd:
		zw, err := zstd.NewWriter(wc)
		if err != nil {
			return nil, err
		}
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	case LZ4:
		zw := lz4.NewWriter(wc)
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	case XZ:
		zw, err := xz.NewWriter(wc)
		if err != nil {
			return nil, err
		}
		return &writeCloser{Writer: zw, closers: []io.Closer{zw, wc}}, nil
	default:
		return nil, fmt.Errorf("datasource: unsupported compression %s", c)
	}
}

type closerFunc func()

func (f closerFunc) Close() error { f(); return nil }

// readCloser closes its closers in order.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error { return closeAll(r.closers) }

type writeCloser struct {
	io.Writer
	closers []io.Closer
}

func (w *writeCloser) Close() error { return closeAll(w.closers) }

func closeAll(cs []io.Closer) error {
	var errs []error
	for _, c := range cs {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
