package resource

import "context"

// Call is the handle of one invocation.
type Call[T any] struct {
	Generation uint64

	done chan struct{}
	data T
	err  error
}

func newCall[T any](gen uint64) *Call[T] {
	return &Call[T]{Generation: gen, done: make(chan struct{})}
}

// Done is closed once the call has settled or was superseded.
func (c *Call[T]) Done() <-chan struct{} { return c.done }

// Wait blocks until the call settles. It returns the call's data, its
// *Failure, ErrSuperseded when a newer generation took over, or ctx.Err().
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.data, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (c *Call[T]) settle(data T, err error) {
	c.data = data
	c.err = err
	close(c.done)
}
