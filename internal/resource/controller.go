package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/fairyhunter13/property-admin-console/internal/obs"
)

// Operation is the asynchronous remote call wrapped by a Controller.
type Operation[T, A any] func(ctx context.Context, args A) (T, error)

// Policy decides what Invoke does while a call is already pending.
type Policy int

const (
	// Supersede starts a new generation; the pending call's outcome is
	// discarded when it settles.
	Supersede Policy = iota
	// IgnoreWhilePending drops the invocation and hands back the in-flight
	// call.
	IgnoreWhilePending
)

type options struct {
	policy           Policy
	cancelSuperseded bool
	retainStale      bool
	observer         func(name string, s Status)
}

// Option configures a Controller.
type Option func(*options)

// WithPolicy selects the re-entrancy policy. The default is Supersede.
func WithPolicy(p Policy) Option { return func(o *options) { o.policy = p } }

// WithCancelOnSupersede cancels the context of a call once a newer
// invocation or a reset takes over.
func WithCancelOnSupersede() Option { return func(o *options) { o.cancelSuperseded = true } }

// RetainStale keeps the last resolved data visible, flagged Stale, while a
// refresh is pending.
func RetainStale() Option { return func(o *options) { o.retainStale = true } }

// WithObserver registers a hook called after every committed transition.
func WithObserver(fn func(name string, s Status)) Option {
	return func(o *options) { o.observer = fn }
}

// Controller owns one snapshot and the invocations that update it.
//
// A Controller is safe for concurrent use. It is meant to be owned by a
// single consumer and is never shared through a registry.
type Controller[T, A any] struct {
	name string
	op   Operation[T, A]
	opts options
	gen  Sequencer

	mu      sync.Mutex
	snap    Snapshot[T]
	latest  uint64
	current *Call[T]
	cancel  context.CancelFunc
	subs    map[int]func(Snapshot[T])
	nextSub int
}

// New creates an Idle controller around op.
func New[T, A any](name string, op Operation[T, A], opts ...Option) *Controller[T, A] {
	c := &Controller[T, A]{name: name, op: op, subs: make(map[int]func(Snapshot[T]))}
	for _, o := range opts {
		o(&c.opts)
	}
	return c
}

// Name returns the controller's name.
func (c *Controller[T, A]) Name() string { return c.name }

// Snapshot returns the latest committed snapshot.
func (c *Controller[T, A]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Current returns Snapshot as an untyped value for composers.
func (c *Controller[T, A]) Current() any { return c.Snapshot() }

// Invoke starts a new invocation of the operation. The snapshot is Pending
// when Invoke returns.
func (c *Controller[T, A]) Invoke(ctx context.Context, args A) *Call[T] {
	c.mu.Lock()
	if c.opts.policy == IgnoreWhilePending && c.current != nil {
		call := c.current
		c.mu.Unlock()
		obs.Logger.Debug("resource_invoke_ignored", "controller", c.name, "generation", call.Generation)
		return call
	}
	gen := c.gen.Next()
	c.latest = gen
	c.dropCurrentLocked()

	opCtx, cancel := context.WithCancel(ctx)
	call := newCall[T](gen)
	c.current = call
	c.cancel = cancel

	next := Snapshot[T]{Status: Pending, Generation: gen}
	if c.opts.retainStale {
		if prev, ok := c.snap.Value(); ok {
			next.Data = prev
			next.Stale = true
		}
	}
	snap, subs := c.commitLocked(next)
	c.mu.Unlock()

	c.emit(snap, subs)
	go c.run(opCtx, cancel, call, args)
	return call
}

// Reset returns the controller to Idle. Any in-flight outcome is discarded.
func (c *Controller[T, A]) Reset() {
	c.mu.Lock()
	c.latest = c.gen.Next()
	c.dropCurrentLocked()
	snap, subs := c.commitLocked(Snapshot[T]{Status: Idle})
	c.mu.Unlock()
	c.emit(snap, subs)
}

// Subscribe registers fn to receive every committed snapshot. Deliveries
// happen outside the controller lock; compare Version to order them.
func (c *Controller[T, A]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
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

// Watch registers fn to be called after every committed transition.
func (c *Controller[T, A]) Watch(fn func()) (unwatch func()) {
	return c.Subscribe(func(Snapshot[T]) { fn() })
}

// dropCurrentLocked detaches the in-flight call so its outcome is discarded.
func (c *Controller[T, A]) dropCurrentLocked() {
	if c.current == nil {
		return
	}
	if c.opts.cancelSuperseded && c.cancel != nil {
		c.cancel()
	}
	c.current = nil
	c.cancel = nil
}

func (c *Controller[T, A]) commitLocked(next Snapshot[T]) (Snapshot[T], []func(Snapshot[T])) {
	next.Version = c.snap.Version + 1
	c.snap = next
	subs := make([]func(Snapshot[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return next, subs
}

func (c *Controller[T, A]) emit(snap Snapshot[T], subs []func(Snapshot[T])) {
	obs.Logger.Debug("resource_transition",
		"controller", c.name,
		"status", snap.Status.String(),
		"generation", snap.Generation,
		"version", snap.Version,
	)
	if c.opts.observer != nil {
		c.opts.observer(c.name, snap.Status)
	}
	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Controller[T, A]) run(ctx context.Context, cancel context.CancelFunc, call *Call[T], args A) {
	defer cancel()
	data, err := c.execute(ctx, args)
	failure := Normalize(err)

	c.mu.Lock()
	if call.Generation != c.latest {
		c.mu.Unlock()
		obs.Logger.Debug("resource_outcome_discarded", "controller", c.name, "generation", call.Generation)
		var zero T
		call.settle(zero, ErrSuperseded)
		return
	}
	c.current = nil
	c.cancel = nil
	var next Snapshot[T]
	if failure != nil {
		next = Snapshot[T]{Status: Failed, Err: failure, Generation: call.Generation}
	} else {
		next = Snapshot[T]{Status: Resolved, Data: data, Generation: call.Generation}
	}
	snap, subs := c.commitLocked(next)
	c.mu.Unlock()

	if failure != nil {
		obs.Logger.Info("resource_failed",
			"controller", c.name,
			"generation", call.Generation,
			"kind", failure.Kind.String(),
			"error", failure.Error(),
		)
	}
	c.emit(snap, subs)
	if failure != nil {
		var zero T
		call.settle(zero, failure)
		return
	}
	call.settle(data, nil)
}

func (c *Controller[T, A]) execute(ctx context.Context, args A) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			data = zero
			err = Fail(UnknownFailure, c.name+": unexpected failure", fmt.Errorf("panic: %v", r))
		}
	}()
	return c.op(ctx, args)
}
