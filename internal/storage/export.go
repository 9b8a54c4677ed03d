package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tabclean/internal/table"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 1000

// ExportTable streams t's rows into repo in batches of batchSize. Cells are
// passed as-is: string, int64, float64, bool or nil.
func ExportTable(ctx context.Context, repo Repository, t *table.Table, batchSize int) (int64, error) {
	return exportTable(ctx, repo, t, LoadOptions{BatchSize: batchSize})
}

func exportTable(ctx context.Context, repo Repository, t *table.Table, opts LoadOptions) (int64, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g, gctx := errgroup.WithContext(ctx)
	in := make(chan []any, opts.BatchSize)

	g.Go(func() error {
		defer close(in)
		for i := 0; i < t.NumRows(); i++ {
			select {
			case in <- t.Row(i):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var total int64
	g.Go(func() error {
		n, err := LoadBatches(gctx, t.Names(), in, opts, repo.CopyFrom)
		total = n
		return err
	})

	err := g.Wait()
	return total, err
}

// Sink writes cleaned tables to a database table.
type Sink struct {
	Config Config
	// AutoCreate issues CREATE TABLE IF NOT EXISTS before loading.
	AutoCreate bool
	BatchSize  int
	Logger     *zap.Logger
	Job        string
}

func (s *Sink) Name() string { return "storage:" + s.Config.Kind }

// WriteTable opens a repository for t's columns, optionally creates the
// destination table and loads every row.
func (s *Sink) WriteTable(ctx context.Context, t *table.Table) error {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := s.Config
	cfg.Columns = t.Names()

	repo, err := New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Kind, err)
	}
	defer repo.Close()

	if s.AutoCreate {
		if err := EnsureTable(ctx, cfg.Kind, repo, Defs(cfg.Table, t)); err != nil {
			return err
		}
	}
	n, err := exportTable(ctx, repo, t, LoadOptions{BatchSize: s.BatchSize, Logger: log, Job: s.Job})
	if err != nil {
		return fmt.Errorf("export to %s: %w", cfg.Table, err)
	}
	log.Info("table exported",
		zap.String("kind", cfg.Kind),
		zap.String("table", cfg.Table),
		zap.Int64("rows", n),
	)
	return nil
}
