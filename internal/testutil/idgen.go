package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDGenerator generates target ids from a fixed prefix and a
// counter ("new-0001", "new-0002", ...).
//
// Unlike engine.FixedGenerator, which panics once its supplied ids run
// out, SequenceIDGenerator never exhausts. This suits scenario tests
// where the number of AlwaysCreateNew mappings is data-driven: the same
// scenario with the same generator produces byte-identical reports.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequenceIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "new".
func NewSequenceIDGenerator(prefix string) *SequenceIDGenerator {
	if prefix == "" {
		prefix = "new"
	}
	return &SequenceIDGenerator{prefix: prefix}
}

// Generate returns the next id in the sequence.
//
// Implements engine.IDGenerator.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Reset rewinds the counter so the next Generate returns the first id.
func (g *SequenceIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
