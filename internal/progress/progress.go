// Package progress provides the shared progress indicator driven by the
// fan-out executor. Trackers count completed work items; the terminal
// implementation renders the count to stderr and erases itself on Close so
// no partial output is left behind on either success or error paths.
package progress

import "sync/atomic"

// Tracker receives completion updates from concurrent work. Start is called
// once with the total number of work items; Add once per completion,
// possibly from multiple goroutines; Close tears the indicator down and is
// safe to call more than once.
type Tracker interface {
	Start(total int)
	Add(delta int)
	Close()
}

// Nop returns a tracker that does nothing.
func Nop() Tracker {
	return nopTracker{}
}

type nopTracker struct{}

func (nopTracker) Start(int) {}
func (nopTracker) Add(int)   {}
func (nopTracker) Close()    {}

// Counter is a tracker that only counts. Useful for tests and for callers
// that render progress themselves.
type Counter struct {
	total int64
	done  int64
	closd atomic.Bool
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Start(total int) {
	atomic.StoreInt64(&c.total, int64(total))
}

func (c *Counter) Add(delta int) {
	atomic.AddInt64(&c.done, int64(delta))
}

func (c *Counter) Close() {
	c.closd.Store(true)
}

// Done returns the number of completions recorded.
func (c *Counter) Done() int64 {
	return atomic.LoadInt64(&c.done)
}

// Total returns the total set by Start.
func (c *Counter) Total() int64 {
	return atomic.LoadInt64(&c.total)
}

// Closed reports whether Close has been called.
func (c *Counter) Closed() bool {
	return c.closd.Load()
}
