package fanout

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentra-sec/sentractl/internal/progress"
)

func TestRun_CompletionOrder(t *testing.T) {
	// Later submissions finish first; results must arrive as they complete.
	delays := []time.Duration{60 * time.Millisecond, 30 * time.Millisecond, 0}

	ctx := context.Background()
	out := Run(ctx, Config{Workers: 3}, []int{0, 1, 2}, func(ctx context.Context, i int) (int, error) {
		time.Sleep(delays[i])
		return i, nil
	})

	var got []int
	for o := range out {
		if o.Err != nil {
			t.Fatalf("task %d: %v", o.Arg, o.Err)
		}
		got = append(got, o.Value)
	}

	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0] != 2 || got[2] != 0 {
		t.Errorf("completion order = %v, want fastest first", got)
	}
}

func TestRun_BoundedWorkers(t *testing.T) {
	var inFlight, peak atomic.Int32

	out := Run(context.Background(), Config{Workers: 2}, make([]struct{}, 20), func(ctx context.Context, _ struct{}) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	count := 0
	for range out {
		count++
	}

	if count != 20 {
		t.Errorf("completed %d tasks, want 20", count)
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestRun_ProgressCounts(t *testing.T) {
	counter := progress.NewCounter()

	out := Run(context.Background(), Config{Progress: counter}, []int{1, 2, 3, 4}, func(ctx context.Context, i int) (int, error) {
		return i * 2, nil
	})

	var values []int
	for o := range out {
		values = append(values, o.Value)
	}
	sort.Ints(values)

	if counter.Total() != 4 {
		t.Errorf("Total() = %d, want 4", counter.Total())
	}
	if counter.Done() != 4 {
		t.Errorf("Done() = %d, want 4", counter.Done())
	}
	if !counter.Closed() {
		t.Error("tracker not closed after run")
	}
	if want := []int{2, 4, 6, 8}; len(values) != 4 || values[0] != want[0] || values[3] != want[3] {
		t.Errorf("values = %v, want %v", values, want)
	}
}

func TestRun_ErrorsFlowThrough(t *testing.T) {
	boom := errors.New("boom")

	out := Run(context.Background(), Config{}, []int{1, 2}, func(ctx context.Context, i int) (int, error) {
		if i == 2 {
			return 0, boom
		}
		return i, nil
	})

	var errCount int
	for o := range out {
		if o.Err != nil {
			if !errors.Is(o.Err, boom) {
				t.Errorf("Err = %v, want %v", o.Err, boom)
			}
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("saw %d errors, want 1", errCount)
	}
}

func TestRun_CancelStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int32
	block := make(chan struct{})

	out := Run(ctx, Config{Workers: 1}, make([]int, 50), func(ctx context.Context, _ int) (int, error) {
		started.Add(1)
		select {
		case <-block:
		case <-ctx.Done():
		}
		return 0, nil
	})

	// Let the first task start, then cancel.
	for started.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(block)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				if s := started.Load(); s > 2 {
					t.Errorf("started %d tasks after cancel, want at most 2", s)
				}
				return
			}
		case <-deadline:
			t.Fatal("output channel never closed after cancel")
		}
	}
}
