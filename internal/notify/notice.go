// Package notify delivers user-facing notices (toasts) asynchronously.
// It is a sink: nothing it does feeds back into the caller.
package notify

import "time"

// Variant selects how a notice is presented.
type Variant string

const (
	Default     Variant = "default"
	Destructive Variant = "destructive"
)

// Notice is one toast.
type Notice struct {
	Title       string
	Description string
	Variant     Variant
	// Key identifies the resource the notice is about, if any.
	Key string
	// Sequence orders notices in submission order. Assigned on Notify.
	Sequence uint64
	At       time.Time
}

// Notifier accepts notices.
type Notifier interface {
	Notify(n Notice)
}

// Discard drops every notice.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Notice) {}
