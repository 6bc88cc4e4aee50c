// Package dropengine implements the DropEngine component of spec
// §4.6: the recursive deletion state machine that decides, given a
// DropBehavior, which objects a drop cascades to, which transitively
// pinned objects forbid it, and in what order destructors run so that
// none ever observes a dangling reference.
//
// The engine owns no storage of its own; every mutation flows through
// a caller-supplied edgestore.Store and classregistry.Registry, the
// same separation the teacher draws between its Cypher executor
// (pkg/cypher/executor.go) and the storage engine it drives.
package dropengine

import "github.com/orneryd/catalogdep/pkg/address"

// DropBehavior selects RESTRICT or CASCADE semantics for a deletion
// (spec §6).
type DropBehavior int

const (
	// Restrict refuses the drop when any NORMAL incoming edge exists
	// outside the pre-computed oktodelete closure.
	Restrict DropBehavior = iota
	// Cascade recursively deletes every reachable dependent regardless
	// of edge kind. Still blocked by PIN edges.
	Cascade
)

func (b DropBehavior) String() string {
	if b == Cascade {
		return "CASCADE"
	}
	return "RESTRICT"
}

// Stats accumulates counters across one or more deletion calls sharing
// the same Engine, useful for CLI summaries and for tests asserting
// order-independence (spec §8): the totals must come out identical
// regardless of incoming-edge visit order. Grounded in the teacher's
// QueryStats/IndexStats counters (pkg/cypher/types.go,
// pkg/storage/schema.go).
type Stats struct {
	ObjectsDeleted     int
	EdgesSevered       int
	ViolationsReported int
}

// Reset zeroes every counter, for tests that reuse one Engine across
// scenarios.
func (s *Stats) Reset() {
	if s == nil {
		return
	}
	*s = Stats{}
}

// dropState threads the per-call mutable traversal state through the
// recursive deletion machinery: the pre-computed oktodelete closure,
// the alreadyDeleted de-duplication set shared across
// performMultipleDeletions, and the accumulated RESTRICT-violation
// messages that get surfaced together at the outermost call (spec §7
// propagation rule).
type dropState struct {
	oktodelete     *address.Set
	alreadyDeleted *address.Set
	violations     []string
	stats          *Stats
}

func (s *dropState) recordStat(f func(*Stats)) {
	if s.stats != nil {
		f(s.stats)
	}
}
