// Package id generates the ids used to tag routed connections in
// logs and diagnostics.
package id

import (
	"sync/atomic"
)

// Generator connection id generator
type Generator interface {
	Gen() (uint64, error)
}

// NewMemGenerator returns a process-local counter generator
func NewMemGenerator() Generator {
	return &memGenerator{}
}

type memGenerator struct {
	value uint64
}

func (g *memGenerator) Gen() (uint64, error) {
	return atomic.AddUint64(&g.value, 1), nil
}
