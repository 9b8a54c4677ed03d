// Package datasource defines where raw CSV bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh reader over its input. Callers close it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Reader adapts an already-open stream to Source. Open hands out the stream
// once; the caller owns closing it.
type Reader struct {
	R io.Reader
}

func (r Reader) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(r.R), nil
}
