package staging

import (
	"errors"
	"sync"
)

// Mode is the state of an edit session.
type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// ErrNotEditing is returned when a commit is attempted outside Editing.
var ErrNotEditing = errors.New("staging: session is not editing")

// Session drives the edit workflow of one entity:
//
//	Viewing -> Begin -> Editing
//	Editing -> Committed(nil) -> Viewing
//	Editing -> Committed(err) -> Editing (buffer untouched)
//	Editing -> Cancel -> Viewing (edits discarded)
type Session struct {
	buf *Buffer

	mu     sync.Mutex
	mode   Mode
	seeded Form
}

// NewSession starts a Viewing session over buf.
func NewSession(buf *Buffer) *Session {
	return &Session{buf: buf, seeded: buf.snapshotForm()}
}

// Buffer returns the staged fields.
func (s *Session) Buffer() *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

// Mode returns the current state.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Seed applies a fresh source revision to the buffer and remembers it as the
// baseline Cancel returns to.
func (s *Session) Seed(rev uint64, f Form) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.buf.Seed(rev, f) {
		return false
	}
	s.seeded = s.buf.snapshotForm()
	return true
}

// Begin enters Editing. It reports false when already editing.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Editing {
		return false
	}
	s.mode = Editing
	return true
}

// Cancel leaves Editing and discards edits by restoring the last seed.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != Editing {
		return
	}
	s.buf.restore(s.seeded)
	s.mode = Viewing
}

// Commit packages the buffer for the mutation. The session stays Editing
// until Committed reports the outcome.
func (s *Session) Commit() (Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != Editing {
		return Payload{}, ErrNotEditing
	}
	return s.buf.Commit(), nil
}

// Committed records the mutation outcome. On failure the session stays in
// Editing and the buffer keeps exactly what the user typed.
func (s *Session) Committed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return
	}
	s.mode = Viewing
}

// Reset returns to Viewing with an empty buffer for a new key.
func (s *Session) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = NewBuffer(key, s.buf.schema)
	s.seeded = s.buf.snapshotForm()
	s.mode = Viewing
}
