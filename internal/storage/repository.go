// Package storage holds the backend-agnostic database export contracts: a
// Repository capable of bulk loading rows, a factory registry keyed by
// storage kind, per-kind DDL bootstrappers and a batched loader.
//
// Backends register themselves from init; import storage/all to enable every
// built-in kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Repository is the minimal surface the exporter needs from a backend.
type Repository interface {
	// CopyFrom bulk inserts rows aligned to columns and reports the number
	// of rows written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	Close()
}

// Config selects a backend and its destination table.
type Config struct {
	Kind  string
	DSN   string
	Table string
	// Columns is the ordered destination column list.
	Columns []string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds or replaces the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// QuoteFQN quotes each dot-separated segment of name with quote, skipping
// empty segments.
func QuoteFQN(name string, quote func(string) string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}
