package resource

// Status is the lifecycle state of a controller.
type Status int

const (
	Idle Status = iota
	Pending
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable read of a controller.
//
// Data is meaningful only when Status is Resolved, or when Stale is set
// during Pending. Err is set only when Status is Failed.
type Snapshot[T any] struct {
	Status Status
	Data   T
	Err    *Failure

	// Generation is the invocation that produced this snapshot; zero for the
	// initial Idle snapshot.
	Generation uint64
	// Version counts committed transitions of the owning controller.
	Version uint64
	// Stale marks data carried over from an earlier resolution while a newer
	// invocation is pending.
	Stale bool
}

// Value returns the data when it may be presented.
func (s Snapshot[T]) Value() (T, bool) {
	if s.Status == Resolved || (s.Status == Pending && s.Stale) {
		return s.Data, true
	}
	var zero T
	return zero, false
}

func (s Snapshot[T]) Loading() bool  { return s.Status == Pending }
func (s Snapshot[T]) Resolved() bool { return s.Status == Resolved }
func (s Snapshot[T]) Failed() bool   { return s.Status == Failed }

func (s Snapshot[T]) snapshotStatus() Status { return s.Status }

// statusReader lets Inputs inspect snapshots of any element type.
type statusReader interface{ snapshotStatus() Status }
