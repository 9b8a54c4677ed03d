// Package file implements the local filesystem datasource.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// SourceNotFoundError reports a source path that does not exist.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s", e.Path)
}

// Unwrap lets errors.Is(err, os.ErrNotExist) keep working.
func (e *SourceNotFoundError) Unwrap() error { return os.ErrNotExist }

// Local opens a file on the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open returns the file for reading. A canceled context short-circuits
// before touching the filesystem. A missing file is a *SourceNotFoundError;
// other filesystem errors are wrapped with the path.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &SourceNotFoundError{Path: l.path}
		}
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
