package notify

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/fairyhunter13/property-admin-console/internal/obs"
)

// LogSink writes notices to obs.Logger.
type LogSink struct{}

// Deliver logs n at info level, or warn for destructive notices.
func (LogSink) Deliver(_ context.Context, n Notice) error {
	log := obs.Logger.Info
	if n.Variant == Destructive {
		log = obs.Logger.Warn
	}
	log("notice",
		"title", n.Title,
		"description", n.Description,
		"variant", string(n.Variant),
		"key", n.Key,
		"sequence", n.Sequence,
	)
	return nil
}

// Recorder keeps every delivered notice.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Deliver records n.
func (r *Recorder) Deliver(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

// Notices returns the recorded notices in sequence order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	out := slices.Clone(r.notices)
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b Notice) int { return cmp.Compare(a.Sequence, b.Sequence) })
	return out
}

// Last returns the notice with the highest sequence.
func (r *Recorder) Last() (Notice, bool) {
	ns := r.Notices()
	if len(ns) == 0 {
		return Notice{}, false
	}
	return ns[len(ns)-1], true
}

// Reset forgets every recorded notice.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}

// Fanout delivers to every sink and joins their errors.
type Fanout []Sink

// Deliver hands n to every sink, even after one fails.
func (f Fanout) Deliver(ctx context.Context, n Notice) error {
	var errs []error
	for _, s := range f {
		if err := s.Deliver(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notice) error

// Deliver calls f.
func (f SinkFunc) Deliver(ctx context.Context, n Notice) error { return f(ctx, n) }
