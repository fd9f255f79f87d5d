// Package parallel provides the cell-level parallel loops used by the numeric kernels.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

var current atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig()
	current.Store(&cfg)
}

// Default returns the process-wide configuration used by kernels.
func Default() Config {
	return *current.Load()
}

// SetDefault replaces the process-wide configuration.
// A non-positive NumWorkers falls back to the CPU count.
func SetDefault(cfg Config) {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = 1
	}
	current.Store(&cfg)
}

// ForRange splits [0, n) into contiguous ranges and executes f(start, end)
// for each of them. Ranges never overlap, so f may write to disjoint output
// rows without synchronization.
func ForRange(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		// Sequential fallback.
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ForCells splits the variants*samples cells of a genotype block across
// workers. f receives the flat, variant-major index of one cell, so a block
// with few variants and many samples still spreads over every worker.
func ForCells(variants, samples int, f func(cell int), cfg Config) {
	ForRange(variants*samples, func(start, end int) {
		for c := start; c < end; c++ {
			f(c)
		}
	}, cfg)
}
