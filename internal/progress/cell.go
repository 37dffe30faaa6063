// Package progress implements the shared progress cell of spec.md §6: a
// single-producer, multi-reader value written by the engine process after
// every stage transition and polled by a supervisor to render progress.
package progress

import (
	"math"
	"sync/atomic"
)

// Cell is an atomic progress fraction. Values follow §6: 0.00 at S1 start,
// 0.25/0.50/0.75/1.00 after S1/S2/S3/S4, negative indicates infeasibility.
// Safe for one writer and any number of concurrent readers.
type Cell struct {
	bits atomic.Uint64
}

// NewCell returns a Cell initialized to 0.
func NewCell() *Cell {
	return &Cell{}
}

// Set stores frac as the current progress value.
func (c *Cell) Set(frac float64) {
	c.bits.Store(math.Float64bits(frac))
}

// Value reads the current progress value.
func (c *Cell) Value() float64 {
	return math.Float64frombits(c.bits.Load())
}

// Infeasible reports whether the last written value signals infeasibility.
func (c *Cell) Infeasible() bool {
	return c.Value() < 0
}
