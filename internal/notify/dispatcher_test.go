package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fairyhunter13/property-admin-console/internal/obs"
)

func startDispatcher(t *testing.T, sink Sink, m *obs.Metrics) *Dispatcher {
	t.Helper()
	d := NewDispatcher(DispatcherConfig{Workers: 3, Buffer: 4}, sink, m)
	d.Start(context.Background())
	t.Cleanup(d.Stop)
	return d
}

func drain(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if !d.DrainUntil(ctx) {
		t.Fatalf("drain timeout, pending=%d", d.Pending())
	}
}

func TestDispatcherDeliversInSequence(t *testing.T) {
	rec := &Recorder{}
	d := startDispatcher(t, rec, nil)
	for i := 0; i < 100; i++ {
		d.Notify(Notice{Title: "Success"})
	}
	drain(t, d)

	got := rec.Notices()
	if len(got) != 100 {
		t.Fatalf("expected 100 notices, got %d", len(got))
	}
	for i, n := range got {
		if n.Sequence != uint64(i+1) {
			t.Fatalf("notice %d has sequence %d", i, n.Sequence)
		}
		if n.Variant != Default {
			t.Fatalf("expected default variant, got %q", n.Variant)
		}
		if n.At.IsZero() {
			t.Fatalf("expected timestamp")
		}
	}
	last, ok := rec.Last()
	if !ok || last.Sequence != 100 {
		t.Fatalf("unexpected last notice %+v", last)
	}
}

func TestDispatcherCloseIntake(t *testing.T) {
	rec := &Recorder{}
	d := startDispatcher(t, rec, nil)
	d.Notify(Notice{Title: "kept"})
	d.CloseIntake()
	d.Notify(Notice{Title: "dropped"})
	drain(t, d)
	got := rec.Notices()
	if len(got) != 1 || got[0].Title != "kept" {
		t.Fatalf("unexpected notices %+v", got)
	}
}

func TestDispatcherCountsDeliveredVariants(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)
	var fail atomic.Bool
	sink := SinkFunc(func(context.Context, Notice) error {
		if fail.Load() {
			return errors.New("sink down")
		}
		return nil
	})
	d := startDispatcher(t, sink, m)
	d.Notify(Notice{Title: "Error", Variant: Destructive})
	d.Notify(Notice{Title: "Success"})
	drain(t, d)
	fail.Store(true)
	d.Notify(Notice{Title: "lost"})
	drain(t, d)

	if v := testutil.ToFloat64(m.NoticesTotal.WithLabelValues("destructive")); v != 1 {
		t.Fatalf("expected 1 destructive notice, got %v", v)
	}
	if v := testutil.ToFloat64(m.NoticesTotal.WithLabelValues("default")); v != 1 {
		t.Fatalf("expected 1 default notice, got %v", v)
	}
}

func TestFanoutJoinsErrors(t *testing.T) {
	rec := &Recorder{}
	boom := errors.New("boom")
	f := Fanout{rec, SinkFunc(func(context.Context, Notice) error { return boom }), LogSink{}}
	err := f.Deliver(context.Background(), Notice{Title: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(rec.Notices()) != 1 {
		t.Fatalf("expected recorder to receive the notice")
	}
	rec.Reset()
	if len(rec.Notices()) != 0 {
		t.Fatalf("expected reset recorder")
	}
}
