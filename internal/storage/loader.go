package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tabclean/internal/metrics"
)

// CopyFn abstracts a backend's bulk insert. It must insert rows aligned to
// columns, report the rows written and stop promptly when ctx is done.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadOptions tunes LoadBatches.
type LoadOptions struct {
	BatchSize int
	Logger    *zap.Logger
	// Job labels the batch counter.
	Job string
}

// LoadBatches drains in, groups rows into batches of opts.BatchSize and calls
// copyFn for each non-empty batch. It returns the rows reported by copyFn and
// the first error. On cancellation it returns (total, ctx.Err()).
func LoadBatches(ctx context.Context, columns []string, in <-chan []any, opts LoadOptions, copyFn CopyFn) (int64, error) {
	if opts.BatchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, opts.BatchSize)
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Error("batch copy failed", zap.Int64("inserted", n), zap.Int64("total", total), zap.Error(err))
			return err
		}

		batches++
		metrics.RecordBatches(opts.Job, 1)
		now := time.Now()
		rps := float64(0)
		if since := now.Sub(lastFlush); since > 0 {
			rps = float64(n) / since.Seconds()
		}
		log.Debug("batch flushed",
			zap.Int64("batch", batches),
			zap.Int64("inserted", n),
			zap.Int64("total", total),
			zap.Float64("rps", rps),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
		)
		lastFlush = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				log.Info("load finished", zap.Int64("batches", batches), zap.Int64("total", total))
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= opts.BatchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
