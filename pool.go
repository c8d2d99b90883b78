package pipexec

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many pipelines may have child processes alive at once.
// It changes nothing about a single Run call's semantics, invariants, or
// error types — it only delays the fork until a slot is free, the same
// concern the teacher's fixed-capacity remux slot allocator addressed for
// a single process at a time, generalized here to whole pipelines.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool allowing up to capacity pipelines to run
// concurrently. capacity must be positive.
func NewPool(capacity int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(capacity)}
}

// Run acquires a slot, runs pipeline.Run(opts...), and releases the slot.
// It blocks until a slot is available or ctx is canceled, in which case it
// returns ctx.Err() without starting the pipeline.
func (p *Pool) Run(ctx context.Context, pipeline Pipeline, opts ...Option) (stdout, stderr []byte, err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, nil, err
	}
	defer p.sem.Release(1)
	return pipeline.Run(opts...)
}

// Execute is the Pool-bounded equivalent of the package-level Execute.
func (p *Pool) Execute(ctx context.Context, argv []string, opts ...Option) (stdout, stderr []byte, err error) {
	return p.Run(ctx, Pipeline{Command(argv)}, opts...)
}
