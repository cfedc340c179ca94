package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sentra-sec/sentractl/internal/cache"
	"github.com/sentra-sec/sentractl/internal/fanout"
	"github.com/sentra-sec/sentractl/internal/model"
	"github.com/sentra-sec/sentractl/internal/progress"
)

// DefaultCacheCapacity bounds the dedup cache when the caller does not
// choose a capacity.
const DefaultCacheCapacity = 10000

// WorkItem pairs one logical source with one time window; it is the unit of
// concurrent fetch work.
type WorkItem struct {
	Source string
	Window TimeRange
}

// FetchFunc fetches the newline-delimited JSON records for one work item.
// A nil ReadCloser means the source has no data for the window, which is
// not an error; any returned error is fatal to the whole retrieval.
type FetchFunc func(ctx context.Context, source string, window TimeRange) (io.ReadCloser, error)

// Options configures a retrieval.
type Options struct {
	// MaxWindow caps the width of a single query window. Defaults to
	// DefaultMaxWindow.
	MaxWindow time.Duration

	// Cache bounds the dedup cache. Defaults to
	// Bounded(DefaultCacheCapacity); Unbounded guarantees exactly one
	// emission per id at the cost of memory.
	Cache cache.Capacity

	// Concurrency caps in-flight fetches. Defaults to
	// fanout.DefaultWorkers.
	Concurrency int

	// Progress receives completion updates. Defaults to a no-op tracker.
	Progress progress.Tracker

	// CloseProgressOnFirst tears the progress indicator down as soon as
	// the first record is delivered, for callers that stop early.
	CloseProgressOnFirst bool

	// Projection, if set, maps each parsed record before it enters the
	// dedup pipeline. A nil result drops the record. Projected output
	// without a version inherits the original record's version so the
	// merge policy keeps working.
	Projection func(model.Record) model.Record

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type streamState int

const (
	stateConsuming streamState = iota
	stateDraining
	stateDone
)

// Stream is a lazy sequence of deduplicated records. Iterate with Next and
// read the current record with Record; check Err once Next returns false.
// Not safe for concurrent use.
type Stream struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *slog.Logger

	results <-chan fanout.Outcome[WorkItem, io.ReadCloser]
	body    io.ReadCloser
	dec     *json.Decoder

	cache   *cache.Cache[string, model.Record]
	emitted map[string]float64 // high-water mark of emitted versions per id
	pending []model.Record

	state     streamState
	delivered bool
	cur       model.Record
	err       error
}

// Retrieve starts a retrieval over the cross product of sources and the
// windows of tr. The fan-out begins immediately; records are produced only
// as the caller pulls them. Cancelling ctx aborts the stream with no
// further results: partial cross-source output is considered misleading,
// so there is no flush on interrupt.
func Retrieve(ctx context.Context, fetch FetchFunc, sources []string, tr TimeRange, opts Options) (*Stream, error) {
	maxWindow := opts.MaxWindow
	if maxWindow <= 0 {
		maxWindow = DefaultMaxWindow
	}
	windows, err := SplitWindows(tr, maxWindow)
	if err != nil {
		return nil, err
	}
	if !opts.Cache.IsSet() {
		opts.Cache = cache.Bounded(DefaultCacheCapacity)
	}
	if opts.Progress == nil {
		opts.Progress = progress.Nop()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	items := make([]WorkItem, 0, len(sources)*len(windows))
	for _, src := range sources {
		for _, w := range windows {
			items = append(items, WorkItem{Source: src, Window: w})
		}
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		ctx:     sctx,
		cancel:  cancel,
		opts:    opts,
		logger:  logger,
		emitted: make(map[string]float64),
	}
	s.cache = cache.New[string, model.Record](opts.Cache, s.emitAged)

	s.results = fanout.Run(sctx, fanout.Config{
		Workers:  opts.Concurrency,
		Progress: opts.Progress,
	}, items, func(ctx context.Context, item WorkItem) (io.ReadCloser, error) {
		return fetch(ctx, item.Source, item.Window)
	})

	logger.Debug("retrieval started",
		"sources", len(sources),
		"windows", len(windows),
		"work_items", len(items),
	)

	return s, nil
}

// Next advances to the next record. It returns false when the stream is
// exhausted, cancelled or failed; Err distinguishes the cases.
func (s *Stream) Next() bool {
	if s.err != nil || s.state == stateDone && len(s.pending) == 0 {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.interrupt(err)
		return false
	}

	for {
		if len(s.pending) > 0 {
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
			s.markDelivered()
			return true
		}

		switch s.state {
		case stateConsuming:
			if s.dec != nil {
				var rec model.Record
				err := s.dec.Decode(&rec)
				if err == io.EOF {
					s.closeBody()
					continue
				}
				if err != nil {
					s.fail(fmt.Errorf("decode response: %w", err))
					return false
				}
				s.ingest(rec)
				continue
			}

			select {
			case <-s.ctx.Done():
				s.interrupt(s.ctx.Err())
				return false
			case res, ok := <-s.results:
				if !ok {
					s.state = stateDraining
					continue
				}
				if res.Err != nil {
					s.fail(fmt.Errorf("fetch %s %s: %w",
						res.Arg.Source, res.Arg.Window.Start.Format(time.RFC3339), res.Err))
					return false
				}
				if res.Value == nil {
					// No data for this source/window.
					continue
				}
				s.body = res.Value
				s.dec = json.NewDecoder(res.Value)
			}

		case stateDraining:
			s.cache.Drain()
			s.state = stateDone
			if len(s.pending) == 0 {
				s.finish()
				return false
			}

		case stateDone:
			s.finish()
			return false
		}
	}
}

// Record returns the record produced by the last successful Next.
func (s *Stream) Record() model.Record {
	return s.cur
}

// Err returns the error that terminated the stream, or nil after a clean
// exhaustion. A cancelled stream reports the context's error.
func (s *Stream) Err() error {
	return s.err
}

// Close aborts the stream and releases its resources. It is safe to call
// at any point and more than once.
func (s *Stream) Close() {
	s.teardown()
	s.state = stateDone
	s.pending = nil
}

// ingest applies projection and the last-writer-wins merge policy to one
// parsed record.
func (s *Stream) ingest(rec model.Record) {
	// Identity comes from the record as parsed, before projection.
	id, hasID := rec.ID()

	if s.opts.Projection != nil {
		projected := s.opts.Projection(rec)
		if projected == nil {
			return
		}
		if _, ok := projected["version"]; !ok {
			if v, vok := rec.Version(); vok {
				projected["version"] = v
			}
		}
		rec = projected
	}

	if !hasID {
		// Never deduplicated; emitted in parse order.
		s.pending = append(s.pending, rec)
		return
	}

	if s.supersedes(id, rec) {
		s.cache.Put(id, rec)
	}
}

// supersedes reports whether rec replaces the cache entry for id. A record
// without a version, a missing prior entry or a versionless prior entry all
// replace unconditionally; otherwise strictly greater versions win and ties
// keep the existing entry. The recency touch on the existing entry is
// deliberate: a losing duplicate still refreshes it.
func (s *Stream) supersedes(id string, rec model.Record) bool {
	newV, ok := rec.Version()
	if !ok {
		return true
	}
	old, exists := s.cache.Get(id)
	if !exists {
		return true
	}
	oldV, ok := old.Version()
	if !ok {
		return true
	}
	return newV > oldV
}

// emitAged is the cache eviction hook: records aging out of the cache (and
// drained at the end) join the output, except when a newer version for the
// same id was already emitted.
func (s *Stream) emitAged(id string, rec model.Record) {
	if v, ok := rec.Version(); ok {
		if hw, seen := s.emitted[id]; seen && v < hw {
			return
		}
		s.emitted[id] = v
	}
	s.pending = append(s.pending, rec)
}

func (s *Stream) markDelivered() {
	if !s.delivered {
		s.delivered = true
		if s.opts.CloseProgressOnFirst {
			s.opts.Progress.Close()
		}
	}
}

func (s *Stream) interrupt(err error) {
	s.logger.Info("retrieval interrupted, discarding partial results")
	s.err = err
	s.teardown()
	s.state = stateDone
	s.pending = nil
}

func (s *Stream) fail(err error) {
	s.err = err
	s.teardown()
	s.state = stateDone
	s.pending = nil
}

func (s *Stream) finish() {
	s.teardown()
}

// teardown cancels outstanding work, closes the current body and tears the
// progress indicator down. Idempotent.
func (s *Stream) teardown() {
	s.cancel()
	s.closeBody()
	s.opts.Progress.Close()
}

func (s *Stream) closeBody() {
	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
	s.dec = nil
}
