package fanout

import (
	"context"
	"sync"

	"github.com/sentra-sec/sentractl/internal/progress"
)

// DefaultWorkers bounds concurrency when the caller does not choose one.
const DefaultWorkers = 10

// Config controls an executor run.
type Config struct {
	// Workers caps the number of tasks in flight. Defaults to
	// DefaultWorkers when <= 0.
	Workers int

	// Progress receives Start(total) before dispatch, Add(1) per completed
	// task and Close when the run ends. Defaults to a no-op tracker. The
	// caller keeps the handle and may Close it early.
	Progress progress.Tracker
}

// Outcome is one completed task, delivered in completion order.
type Outcome[A, T any] struct {
	Arg   A
	Value T
	Err   error
}

// Run executes fn once per argument with bounded parallelism and returns a
// channel of outcomes in completion order, not submission order. The channel
// is closed once every task has finished or the context is cancelled;
// cancellation abandons unscheduled and unconsumed work.
func Run[A, T any](ctx context.Context, cfg Config, args []A, fn func(context.Context, A) (T, error)) <-chan Outcome[A, T] {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	tracker := cfg.Progress
	if tracker == nil {
		tracker = progress.Nop()
	}
	tracker.Start(len(args))

	out := make(chan Outcome[A, T])
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, arg := range args {
		wg.Add(1)
		go func(arg A) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			val, err := fn(ctx, arg)
			tracker.Add(1)

			select {
			case out <- Outcome[A, T]{Arg: arg, Value: val, Err: err}:
			case <-ctx.Done():
			}
		}(arg)
	}

	go func() {
		wg.Wait()
		tracker.Close()
		close(out)
	}()

	return out
}
