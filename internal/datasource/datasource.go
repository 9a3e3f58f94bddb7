// Package datasource resolves input and output locations for file2ddl.
//
// An input location is "-" (or empty) for stdin, an http(s) URL, or a local
// path. Output is stdout or a local path. In both directions a compression
// codec is chosen from the file extension.
package datasource

import (
	"context"
	"fmt"
	"io"

	"file2ddl/internal/datasource/file"
	"file2ddl/internal/datasource/httpds"
)

// Source opens a byte stream.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// IsStdio reports whether location names a standard stream.
func IsStdio(location string) bool { return location == "" || location == "-" }

// Resolve returns the Source for location. client is used for URLs and may
// be nil.
func Resolve(location string, client *httpds.Client) Source {
	switch {
	case IsStdio(location):
		return file.Stdin()
	case httpds.IsURL(location):
		return httpds.NewSource(client, location)
	default:
		return file.NewLocal(location)
	}
}

// Open opens location and wraps it in a decompressor matching its extension.
func Open(ctx context.Context, location string, client *httpds.Client) (io.ReadCloser, error) {
	return OpenSource(ctx, Resolve(location, client), CompressionOf(location))
}

// OpenSource opens src and decompresses it with c.
func OpenSource(ctx context.Context, src Source, c Compression) (io.ReadCloser, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	out, err := Decompress(c, rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("datasource: %s input: %w", c, err)
	}
	return out, nil
}

// Create opens location for writing, compressing by extension. Closing the
// result flushes the codec and then closes the file.
func Create(location string) (io.WriteCloser, error) {
	wc, err := file.Create(location)
	if err != nil {
		return nil, err
	}
	out, err := Compress(CompressionOf(location), wc)
	if err != nil {
		_ = wc.Close()
		return nil, err
	}
	return out, nil
}
