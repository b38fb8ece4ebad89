// Package resource wraps asynchronous remote operations in controllers that
// expose an immutable snapshot of the operation's lifecycle.
//
// A Controller starts Idle. Invoke flips it to Pending before returning and
// runs the operation in the background; the outcome commits as Resolved or
// Failed only if no newer invocation (or Reset) was issued in the meantime.
// Results are ordered by invocation generation, not completion order:
//
//	ctrl := resource.New("property", client.FetchProperty)
//	call := ctrl.Invoke(ctx, "P1")
//	p, err := call.Wait(ctx)
//
// Failures never escape as panics or raw transport errors. Every error is
// normalised into a *Failure carrying a Kind the consumer can branch on.
//
// A Composer derives a read-only view from several controllers and recomputes
// it on every transition of any input.
package resource
