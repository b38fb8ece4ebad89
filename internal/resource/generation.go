package resource

import "sync/atomic"

// Sequencer provides monotonically increasing generation numbers.
type Sequencer struct{ n atomic.Uint64 }

// Next returns the next generation number.
func (s *Sequencer) Next() uint64 { return s.n.Add(1) }
