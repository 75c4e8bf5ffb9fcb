// Package embedding holds the word-vector table and turns token sequences
// into mean-pooled document vectors.
package embedding

import (
	"errors"
	"fmt"
)

var ErrEmptyModel = errors.New("embedding model has no vectors")

// Lookup is a word -> fixed-length vector table.
type Lookup interface {
	VectorOf(word string) ([]float64, bool)
	Dimension() int
}

// Model is an in-memory Lookup.
type Model struct {
	dim     int
	vectors map[string][]float64
}

// NewModel validates that every vector has length dim.
func NewModel(dim int, vectors map[string][]float64) (*Model, error) {
	if dim <= 0 || len(vectors) == 0 {
		return nil, ErrEmptyModel
	}
	for w, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector for %q has %d dims, want %d", w, len(v), dim)
		}
	}
	return &Model{dim: dim, vectors: vectors}, nil
}

func (m *Model) VectorOf(word string) ([]float64, bool) {
	v, ok := m.vectors[word]
	return v, ok
}

func (m *Model) Dimension() int { return m.dim }

// Len returns the vocabulary size.
func (m *Model) Len() int { return len(m.vectors) }
