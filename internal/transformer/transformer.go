// Package transformer defines the step contract shared by every table
// cleaning operation and the helpers that compose steps into pipelines.
//
// A Transformer mutates the table it is given. Callers that must keep their
// input intact go through WithCopy, which deep-copies first and then runs the
// mutating form on the copy.
package transformer

import (
	"fmt"

	"tabclean/internal/table"
)

// Transformer is a single in-place table step.
type Transformer interface {
	Name() string
	Apply(t *table.Table) error
}

// Func adapts an ordinary function to Transformer.
type Func struct {
	Label string
	Fn    func(t *table.Table) error
}

func (f Func) Name() string { return f.Label }

func (f Func) Apply(t *table.Table) error { return f.Fn(t) }

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Name() string { return "chain" }

// Apply runs each step in order and stops at the first error, which is
// wrapped with the failing step's name. Steps already applied are not undone.
func (c Chain) Apply(t *table.Table) error {
	for _, s := range c {
		if err := s.Apply(t); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	return nil
}

// When runs inner only if cond reports true for the table at apply time.
type When struct {
	Cond  func(t *table.Table) bool
	Inner Transformer
}

func (w When) Name() string { return w.Inner.Name() }

func (w When) Apply(t *table.Table) error {
	if w.Cond != nil && !w.Cond(t) {
		return nil
	}
	return w.Inner.Apply(t)
}

// HasColumn is a When condition that checks for a column.
func HasColumn(name string) func(*table.Table) bool {
	return func(t *table.Table) bool { return t.Has(name) }
}

// WithCopy deep-copies t, applies fn to the copy and returns it. t is never
// modified.
func WithCopy(t *table.Table, fn func(*table.Table) error) (*table.Table, error) {
	cp := t.Clone()
	if err := fn(cp); err != nil {
		return nil, err
	}
	return cp, nil
}
