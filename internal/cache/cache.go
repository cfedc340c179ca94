package cache

import "container/list"

// minCapacity is the floor enforced when shrinking a bounded cache, to
// avoid pathological thrashing on tiny bounds.
const minCapacity = 100

type capMode int

const (
	capUnset capMode = iota
	capBounded
	capUnbounded
)

// Capacity is a tagged capacity option: Bounded(n) or Unbounded(). The zero
// value means "not set"; New treats it as Unbounded, callers with their own
// defaults can test it with IsSet.
type Capacity struct {
	n    int
	mode capMode
}

// Bounded returns a capacity limited to n entries.
func Bounded(n int) Capacity {
	return Capacity{n: n, mode: capBounded}
}

// Unbounded returns a capacity with no entry limit.
func Unbounded() Capacity {
	return Capacity{mode: capUnbounded}
}

// IsBounded reports whether the capacity carries a limit, and the limit.
func (c Capacity) IsBounded() (int, bool) {
	return c.n, c.mode == capBounded
}

// IsSet reports whether the capacity was explicitly chosen.
func (c Capacity) IsSet() bool {
	return c.mode != capUnset
}

// Entry is a key/value pair popped from the cache. Ownership of the value
// transfers to the receiver; the cache retains no reference.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Cache is an ordered key/value store with LRU eviction and an eviction
// hook. Touching a key (Put or Get) marks it freshest; eviction always
// removes the stalest entry first.
type Cache[K comparable, V any] struct {
	cap     Capacity
	onEvict func(K, V)

	ll    *list.List // freshest at front, stalest at back
	items map[K]*list.Element
}

// New creates a cache with the given capacity. onEvict, if non-nil, is
// invoked for every entry removed by eviction or drain, after the entry has
// been detached from the cache.
func New[K comparable, V any](capacity Capacity, onEvict func(K, V)) *Cache[K, V] {
	return &Cache[K, V]{
		cap:     capacity,
		onEvict: onEvict,
		ll:      list.New(),
		items:   make(map[K]*list.Element),
	}
}

// Len returns the number of live entries.
func (c *Cache[K, V]) Len() int {
	return c.ll.Len()
}

// Put inserts or overwrites key, marks it freshest, then evicts stalest
// entries while the cache is over capacity.
func (c *Cache[K, V]) Put(key K, value V) {
	if e, ok := c.items[key]; ok {
		e.Value.(*Entry[K, V]).Value = value
		c.ll.MoveToFront(e)
	} else {
		c.items[key] = c.ll.PushFront(&Entry[K, V]{Key: key, Value: value})
	}

	limit, bounded := c.cap.IsBounded()
	if !bounded {
		return
	}
	for c.ll.Len() > limit {
		ent, ok := c.PopStalest()
		if !ok {
			break
		}
		if c.onEvict != nil {
			c.onEvict(ent.Key, ent.Value)
		}
	}
}

// Get returns the value for key and marks it freshest.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(e)
	return e.Value.(*Entry[K, V]).Value, true
}

// Peek returns the value for key without touching its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return e.Value.(*Entry[K, V]).Value, true
}

// PopStalest removes and returns the least-recently-touched entry. The
// eviction hook is not invoked.
func (c *Cache[K, V]) PopStalest() (Entry[K, V], bool) {
	back := c.ll.Back()
	if back == nil {
		return Entry[K, V]{}, false
	}
	c.ll.Remove(back)
	ent := back.Value.(*Entry[K, V])
	delete(c.items, ent.Key)
	return *ent, true
}

// Drain pops every remaining entry in stalest-first order. With an eviction
// hook registered, each entry flows through the hook and Drain returns nil;
// otherwise the entries are returned. The cache is empty afterwards.
func (c *Cache[K, V]) Drain() []Entry[K, V] {
	var out []Entry[K, V]
	for {
		ent, ok := c.PopStalest()
		if !ok {
			break
		}
		if c.onEvict != nil {
			c.onEvict(ent.Key, ent.Value)
		} else {
			out = append(out, ent)
		}
	}
	return out
}

// Resize grows (positive delta) or shrinks (negative delta) a bounded
// capacity. Shrinking never takes the limit below a small floor. Entries
// over the new limit are evicted on the next Put. Resize on an unbounded
// cache is a no-op.
func (c *Cache[K, V]) Resize(delta int) {
	limit, bounded := c.cap.IsBounded()
	if !bounded {
		return
	}
	limit += delta
	if limit < minCapacity {
		limit = minCapacity
	}
	c.cap = Bounded(limit)
}
