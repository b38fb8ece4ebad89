package resource

import (
	"sync"
	"sync/atomic"
)

// Source is a controller seen by a Composer.
type Source interface {
	Name() string
	Current() any
	Watch(fn func()) (unwatch func())
}

// Inputs is the set of snapshots handed to a merge function, keyed by the
// names given to Compose.
type Inputs struct {
	snaps map[string]any
}

// Lookup returns the typed snapshot of the named input. A missing name or a
// type mismatch yields an Idle snapshot.
func Lookup[T any](in Inputs, name string) Snapshot[T] {
	s, _ := in.snaps[name].(Snapshot[T])
	return s
}

// Status returns the status of the named input, Idle when missing.
func (in Inputs) Status(name string) Status {
	if s, ok := in.snaps[name].(statusReader); ok {
		return s.snapshotStatus()
	}
	return Idle
}

// AllResolved reports whether every named input is Resolved.
func (in Inputs) AllResolved(names ...string) bool {
	for _, n := range names {
		if in.Status(n) != Resolved {
			return false
		}
	}
	return true
}

// View is the derived value of a Composer. Available is false while the
// merge function withholds a value.
type View[V any] struct {
	Value     V
	Available bool
	Version   uint64
}

// Composer derives a read-only view from named sources and recomputes it on
// every transition of any of them. Values returned by the merge function must
// not be mutated afterwards.
type Composer[V any] struct {
	inputs map[string]Source
	merge  func(Inputs) (V, bool)

	mu      sync.Mutex
	view    View[V]
	unwatch []func()
	subs    map[int]func(View[V])
	nextSub int
	closed  bool

	// delivered is the newest Version handed to subscribers.
	delivered atomic.Uint64
}

// Compose builds a Composer and computes its first view immediately.
func Compose[V any](inputs map[string]Source, merge func(Inputs) (V, bool)) *Composer[V] {
	c := &Composer[V]{
		inputs: make(map[string]Source, len(inputs)),
		merge:  merge,
		subs:   make(map[int]func(View[V])),
	}
	for name, src := range inputs {
		c.inputs[name] = src
	}
	unwatch := make([]func(), 0, len(c.inputs))
	for _, src := range c.inputs {
		unwatch = append(unwatch, src.Watch(c.recompute))
	}
	c.mu.Lock()
	c.unwatch = unwatch
	c.mu.Unlock()
	c.recompute()
	return c
}

// View returns the current derived view.
func (c *Composer[V]) View() View[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Subscribe registers fn to receive recomputed views. Deliveries happen
// outside the composer lock and a view older than one already delivered is
// dropped; a subscriber may still observe two deliveries concurrently, so
// compare Version when ordering matters.
func (c *Composer[V]) Subscribe(fn func(View[V])) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close detaches the composer from its sources. The last view stays readable.
func (c *Composer[V]) Close() {
	c.mu.Lock()
	unwatch := c.unwatch
	c.unwatch = nil
	c.closed = true
	c.mu.Unlock()
	for _, fn := range unwatch {
		fn()
	}
}

// recompute reads every source's current snapshot, so the result only
// depends on the latest state and not on delivery order.
func (c *Composer[V]) recompute() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	in := Inputs{snaps: make(map[string]any, len(c.inputs))}
	for name, src := range c.inputs {
		in.snaps[name] = src.Current()
	}
	v, ok := c.merge(in)
	if !ok {
		var zero V
		v = zero
	}
	c.view = View[V]{Value: v, Available: ok, Version: c.view.Version + 1}
	view := c.view
	subs := make([]func(View[V]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if !c.claim(view.Version) {
		return
	}
	for _, fn := range subs {
		fn(view)
	}
}

// claim reports whether version is newer than every delivered view and
// records it as delivered.
func (c *Composer[V]) claim(version uint64) bool {
	for {
		last := c.delivered.Load()
		if version <= last {
			return false
		}
		if c.delivered.CompareAndSwap(last, version) {
			return true
		}
	}
}
