package report

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/semaphore"
)

// Pool bounds how many blocking Jira calls run at once across requests.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a pool running at most workers tasks at a time.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Run executes fn on a pool worker and waits for it. The worker's context is
// derived from ctx, so cancelling ctx cancels the worker; the worker is always
// joined before Run returns. A panic in fn is returned as an error.
func Run[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		res T
		err error
		wg  conc.WaitGroup
	)
	wg.Go(func() {
		res, err = fn(workCtx)
	})
	if r := wg.WaitAndRecover(); r != nil {
		return zero, errors.Wrap(r.AsError(), "worker panicked")
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err == nil {
		return zero, ctxErr
	}
	return res, err
}
