// Package engine materializes task graphs on the local machine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/born-ml/gtensor/internal/dispatch"
	"github.com/born-ml/gtensor/internal/graph"
	"github.com/born-ml/gtensor/internal/tensor"
)

// Options configures a Local engine.
type Options struct {
	// Workers bounds the number of blocks computed at once.
	// Zero or less means runtime.NumCPU().
	Workers int

	// BlockRetries is how many times a failed block is retried.
	BlockRetries int

	// RetryInitialInterval is the first backoff delay between retries.
	RetryInitialInterval time.Duration
}

// DefaultOptions returns options with no retries and one worker per CPU.
func DefaultOptions() Options {
	return Options{
		Workers:              runtime.NumCPU(),
		RetryInitialInterval: 10 * time.Millisecond,
	}
}

// Local computes the blocks of a collection level by level with a bounded
// pool of goroutines. Blocks of one level are independent and run in any
// order.
type Local struct {
	opts Options
}

// NewLocal creates an engine.
func NewLocal(opts Options) *Local {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.BlockRetries < 0 {
		opts.BlockRetries = 0
	}
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = DefaultOptions().RetryInitialInterval
	}
	return &Local{opts: opts}
}

// Options returns the normalized options of the engine.
func (l *Local) Options() Options { return l.opts }

// Compute materializes coll into one dense tensor.
//
// A block whose function fails is reported as ErrBlockFailed naming its key.
// An output block whose shape or dtype disagrees with the declared geometry
// is reported as ErrChunkGeometry.
func (l *Local) Compute(ctx context.Context, coll graph.Collection) (*tensor.RawTensor, error) {
	if err := coll.Validate(); err != nil {
		return nil, fmt.Errorf("compute: %v: %w", err, dispatch.ErrChunkGeometry)
	}
	g, err := coll.Graph.Cull(coll.Keys)
	if err != nil {
		return nil, err
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	start := time.Now()
	slog.Debug("compute started", "run", run, "nodes", g.Len(), "levels", len(levels),
		"outputs", len(coll.Keys), "workers", l.opts.Workers)

	var mu sync.RWMutex
	results := make(map[graph.Key]*tensor.RawTensor, g.Len())

	for _, level := range levels {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(l.opts.Workers)
		for _, key := range level {
			node, _ := g.Get(key)
			eg.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if node.IsLeaf() {
					mu.Lock()
					results[key] = node.Value
					mu.Unlock()
					return nil
				}

				mu.RLock()
				inputs := make([]*tensor.RawTensor, len(node.Inputs))
				for i, in := range node.Inputs {
					inputs[i] = results[in]
				}
				mu.RUnlock()

				out, err := l.runBlock(gctx, node, inputs)
				if err != nil {
					return err
				}
				mu.Lock()
				results[key] = out
				mu.Unlock()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			slog.Debug("compute failed", "run", run, "error", err)
			return nil, err
		}
	}

	blocks := make([]*tensor.RawTensor, len(coll.Keys))
	for i, k := range coll.Keys {
		blocks[i] = results[k]
	}
	out, err := tensor.Stitch(blocks, coll.Chunks, coll.DType)
	if err != nil {
		return nil, fmt.Errorf("compute: %v: %w", err, dispatch.ErrChunkGeometry)
	}

	slog.Debug("compute finished", "run", run, "duration", time.Since(start))
	return out, nil
}

// runBlock evaluates one task, retrying with exponential backoff when the
// engine allows retries. Cancellation is never retried.
func (l *Local) runBlock(ctx context.Context, node graph.Node, inputs []*tensor.RawTensor) (*tensor.RawTensor, error) {
	var out *tensor.RawTensor
	attempt := 0
	op := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		var err error
		out, err = node.Fn(inputs)
		if err != nil && attempt <= l.opts.BlockRetries {
			slog.Debug("block failed, retrying", "key", node.Key, "attempt", attempt, "error", err)
		}
		return err
	}

	var err error
	if l.opts.BlockRetries == 0 {
		err = op()
	} else {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = l.opts.RetryInitialInterval
		b.MaxElapsedTime = 0
		err = backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(l.opts.BlockRetries)), ctx))
	}

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("block %s: %w: %w", node.Key, dispatch.ErrBlockFailed, err)
	}
}
