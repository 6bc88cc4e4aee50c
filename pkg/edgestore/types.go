// Package edgestore implements the persistent typed-edge table the
// dependency engine traverses: the EdgeStore component of spec §4.2.
//
// The engine never touches row layout directly; it only sees the
// Store interface's scan/insert/delete primitives. Two
// implementations are provided:
//   - MemoryStore: an in-process map-indexed store for tests and the
//     CLI's ephemeral mode, modeled on the teacher's MemoryEngine
//     (pkg/storage/memory.go).
//   - BadgerStore: a persistent, disk-backed store using BadgerDB,
//     modeled on the teacher's BadgerEngine (pkg/storage/badger.go),
//     with the same prefix-indexed key layout adapted from
//     node/edge ids to dependency endpoints.
package edgestore

import (
	"errors"
	"fmt"

	"github.com/orneryd/catalogdep/pkg/address"
)

// DependencyType tags the cascading policy of an edge. The
// single-character values are ABI-stable, matching the on-disk
// encoding a real catalog would preserve.
type DependencyType byte

const (
	Normal   DependencyType = 'n'
	Auto     DependencyType = 'a'
	Internal DependencyType = 'i'
	Pin      DependencyType = 'p'
)

func (k DependencyType) String() string {
	switch k {
	case Normal:
		return "NORMAL"
	case Auto:
		return "AUTO"
	case Internal:
		return "INTERNAL"
	case Pin:
		return "PIN"
	default:
		return fmt.Sprintf("DependencyType(%q)", byte(k))
	}
}

// Valid reports whether k is one of the four recognized kinds. Store
// implementations reject inserts of unrecognized kinds; the drop
// engine raises UnrecognizedDependencyType when it encounters one
// during traversal (forward-compat guard, spec §7.4).
func (k DependencyType) Valid() bool {
	switch k {
	case Normal, Auto, Internal, Pin:
		return true
	default:
		return false
	}
}

// DependencyEdge is the persistent record linking a dependent object
// to a referenced object under a cascading policy (spec §3).
//
// PIN edges use the zeroed ObjectAddress as Dependent (invariant 1):
// the referenced object is undroppable by user action.
type DependencyEdge struct {
	Dependent  address.ObjectAddress
	Referenced address.ObjectAddress
	Kind       DependencyType

	// rowID is an internal identity used only so DeleteCurrent-style
	// callers can unambiguously remove "the edge a scan just
	// yielded" even if two scans happen to return value-identical
	// edges. Its concrete type is Store-specific (uint64 sequence for
	// MemoryStore, uuid.UUID for BadgerStore); it has no meaning
	// outside the Store instance that produced it and is never part
	// of the spec's on-disk triple.
	rowID any
}

// Common errors.
var (
	ErrNotFound       = errors.New("edgestore: edge not found")
	ErrInvalidKind    = errors.New("edgestore: invalid dependency kind")
	ErrStoreClosed    = errors.New("edgestore: store closed")
	ErrInvalidPinEdge = errors.New("edgestore: PIN edge must have a zeroed dependent")
)

// Store is the interface the drop engine and recordDependency*
// entrypoints consume. Implementations must guarantee that a scan
// started for deletion purposes takes a row-level write lock on every
// row it returns (spec §4.2, §5): callers rely on this to serialize
// concurrent drops.
type Store interface {
	// ScanOutgoingForDelete returns, and row-locks, every edge whose
	// dependent endpoint is a (or, if a.SubID == 0, any sub-object of
	// a). The result is a materialized snapshot: safe to range over
	// while concurrently calling Delete on any entry (design note
	// 9.a) — callers are not required to drain an open iterator
	// before performing other store operations.
	ScanOutgoingForDelete(a address.ObjectAddress) ([]DependencyEdge, error)

	// ScanIncomingForDelete is the incoming-edge counterpart of
	// ScanOutgoingForDelete, used by deleteDependentObjects.
	ScanIncomingForDelete(a address.ObjectAddress) ([]DependencyEdge, error)

	// ScanOutgoing and ScanIncoming are read-only variants used by
	// recording/discovery and by diagnostic tooling; they take no
	// row lock.
	ScanOutgoing(a address.ObjectAddress) ([]DependencyEdge, error)
	ScanIncoming(a address.ObjectAddress) ([]DependencyEdge, error)

	// Delete removes the given edge row. e must have been obtained
	// from a scan on this Store (it carries the store's internal row
	// identity).
	Delete(e DependencyEdge) error

	// InsertMany records one edge per ref, all sharing dependent and
	// kind. Duplicate-of-existing inserts are allowed; the engine
	// itself is responsible for deduplicating before insert when
	// that matters (recordDependencyOnExpr does, via AddressSet.Dedup).
	InsertMany(dependent address.ObjectAddress, refs []address.ObjectAddress, kind DependencyType) error

	// Publish is the visibility barrier of spec §5: after it
	// returns, every prior Delete/InsertMany in this process is
	// guaranteed visible to subsequent scans. MemoryStore satisfies
	// this trivially (single shared map under a mutex); BadgerStore
	// implements it with a transaction commit.
	Publish() error

	// Close releases underlying resources (file handles for
	// BadgerStore). After Close, every other operation on either
	// implementation returns ErrStoreClosed.
	Close() error

	// Dump returns every edge currently in the store, in no particular
	// order. It exists for debug/introspection tooling (the CLI's
	// `graph` subcommand) the way the teacher's CompositeIndex/
	// RangeIndex expose a Stats()/dump-style accessor; it takes only
	// the store's read lock and is not part of the traversal's
	// row-lock contract.
	Dump() ([]DependencyEdge, error)
}
