package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func feed(n int) chan []any {
	in := make(chan []any, n)
	for i := 0; i < n; i++ {
		in <- []any{int64(i), "x"}
	}
	close(in)
	return in
}

func TestLoadBatches_Sizes(t *testing.T) {
	tests := []struct {
		rows, batch int
		want        []int
	}{
		{rows: 7, batch: 3, want: []int{3, 3, 1}},
		{rows: 6, batch: 3, want: []int{3, 3}},
		{rows: 2, batch: 10, want: []int{2}},
		{rows: 0, batch: 4, want: nil},
	}
	for _, tt := range tests {
		var sizes []int
		copyFn := func(_ context.Context, cols []string, rows [][]any) (int64, error) {
			assert.Equal(t, []string{"id", "name"}, cols)
			sizes = append(sizes, len(rows))
			return int64(len(rows)), nil
		}
		total, err := LoadBatches(context.Background(), []string{"id", "name"}, feed(tt.rows), LoadOptions{BatchSize: tt.batch}, copyFn)
		require.NoError(t, err)
		assert.Equal(t, int64(tt.rows), total)
		assert.Equal(t, tt.want, sizes, "rows=%d batch=%d", tt.rows, tt.batch)
	}
}

func TestLoadBatches_StopsAtFirstError(t *testing.T) {
	boom := errors.New("copy failed")
	calls := 0
	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 1, boom
		}
		return int64(len(rows)), nil
	}
	total, err := LoadBatches(context.Background(), nil, feed(9), LoadOptions{BatchSize: 2}, copyFn)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(3), total, "partial count of the failed batch is included")
}

func TestLoadBatches_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan []any)
	done := make(chan error, 1)
	go func() {
		_, err := LoadBatches(ctx, nil, in, LoadOptions{BatchSize: 2}, func(context.Context, []string, [][]any) (int64, error) {
			return 0, nil
		})
		done <- err
	}()
	in <- []any{1}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("LoadBatches did not return after cancel")
	}
}

func TestLoadBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	in := make(chan []any)
	close(in)
	if _, err := LoadBatches(context.Background(), nil, in, LoadOptions{}, func(context.Context, []string, [][]any) (int64, error) { return 0, nil }); err == nil {
		t.Fatal("expected error for zero batch size")
	}
	if _, err := LoadBatches(context.Background(), nil, in, LoadOptions{BatchSize: 1}, nil); err == nil {
		t.Fatal("expected error for nil copyFn")
	}
}

// TestLoadBatches_Logs checks the final summary line.
func TestLoadBatches_Logs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	in := make(chan []any, 3)
	for i := 0; i < 3; i++ {
		in <- []any{i}
	}
	close(in)

	copyFn := func(_ context.Context, _ []string, rows [][]any) (int64, error) { return int64(len(rows)), nil }
	total, err := LoadBatches(context.Background(), []string{"c"}, in, LoadOptions{BatchSize: 2, Logger: zap.New(core), Job: "test"}, copyFn)
	if err != nil || total != 3 {
		t.Fatalf("LoadBatches = (%d, %v), want (3, nil)", total, err)
	}
	if n := logs.FilterMessage("batch flushed").Len(); n != 2 {
		t.Fatalf("batch flushed logs = %d, want 2", n)
	}
	done := logs.FilterMessage("load finished").All()
	if len(done) != 1 || done[0].ContextMap()["batches"] != int64(2) {
		t.Fatalf("load finished entries = %+v", done)
	}
}
