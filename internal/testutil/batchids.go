package testutil

import (
	"fmt"
	"sync"
)

// BatchIDs hands out deterministic batch ids: prefix-000001, prefix-000002, ...
// It satisfies buffer.BatchIDGenerator without importing buffer, so buffer's
// own tests can use it.
//
// Unlike buffer.FixedGenerator, BatchIDs can be reset so the same scenario can
// run twice with identical ids.
//
// Thread-safety: all methods are safe for concurrent use.
type BatchIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// FixedBatchIDs creates a generator. An empty prefix becomes "batch".
func FixedBatchIDs(prefix string) *BatchIDs {
	if prefix == "" {
		prefix = "batch"
	}
	return &BatchIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *BatchIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%06d", g.prefix, g.seq)
}

// Reset rewinds the sequence; the next Generate returns prefix-000001.
func (g *BatchIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
