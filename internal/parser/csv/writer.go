package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"tabclean/internal/table"
)

// Write emits a header row and every row of t. Missing cells become empty
// fields; floats use the shortest representation that parses back to the
// same value.
func Write(w io.Writer, t *table.Table, opts Options) error {
	cw := csv.NewWriter(w)
	cw.Comma = opts.comma()

	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	cols := t.Columns()
	rec := make([]string, len(cols))
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range cols {
			rec[j] = formatCell(c.Values[i])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path through a temporary file in the same directory
// that is renamed into place, so a failed write never leaves a partial file.
func WriteFile(path string, t *table.Table, opts Options) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err = Write(bw, t, opts); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// FileSink writes a cleaned table to a CSV file.
type FileSink struct {
	Path    string
	Options Options
}

func (s FileSink) Name() string { return "csv:" + s.Path }

func (s FileSink) WriteTable(ctx context.Context, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteFile(s.Path, t, s.Options)
}

// StreamSink writes a cleaned table to an open stream such as stdout or an
// HTTP response.
type StreamSink struct {
	W       io.Writer
	Options Options
}

func (s StreamSink) Name() string { return "csv:stream" }

func (s StreamSink) WriteTable(ctx context.Context, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Write(s.W, t, s.Options)
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
