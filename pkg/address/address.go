// Package address defines the identity model for catalog objects.
//
// An ObjectAddress is the immutable triple that names any object or
// sub-object tracked by the dependency engine. AddressSet is the
// expandable, deduplicating collection used throughout the engine to
// accumulate reachable objects during traversal.
//
// Design Principles:
//   - Identity is a value type: (classId, objectId, subId)
//   - subId = 0 means "the whole object"; subId > 0 names a component
//     (e.g. a column) of objectId
//   - Ordering treats subId as unsigned so whole-object entries sort
//     before any of their sub-objects
//
// Example Usage:
//
//	set := address.NewSet()
//	set.AppendExact(address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 16401})
//	if set.Present(address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 16401, SubID: 2}) {
//		// a whole-object entry subsumes any of its sub-objects
//	}
package address

import (
	"fmt"
	"sort"
	"strings"
)

// ObjectClass tags the catalog class an ObjectAddress belongs to.
//
// The set is closed and ABI-stable: adding a member requires a
// matching classNames entry, and classregistry.New panics unless the
// embedder binds a catalog class id for every member.
type ObjectClass int

const (
	ClassRelation ObjectClass = iota
	ClassProc
	ClassType
	ClassCast
	ClassConstraint
	ClassConversion
	ClassDefault
	ClassLanguage
	ClassOperator
	ClassOpClass
	ClassRewrite
	ClassTrigger
	ClassSchema
	ClassRole
	ClassDatabase
	ClassTablespace
	ClassFilespace
	ClassFilesystem
	ClassFdw
	ClassForeignServer
	ClassUserMapping
	ClassExtProtocol
	ClassCompression

	// numObjectClasses must stay last; it is a sizing sentinel, not a
	// real class. classregistry.New iterates up to it to check that
	// every class has a catalog class id.
	numObjectClasses
)

// NumObjectClasses reports how many ObjectClass members exist, for
// callers that need to size a dispatch table without importing
// classregistry.
func NumObjectClasses() int { return int(numObjectClasses) }

var classNames = [...]string{
	ClassRelation:      "relation",
	ClassProc:          "proc",
	ClassType:          "type",
	ClassCast:          "cast",
	ClassConstraint:    "constraint",
	ClassConversion:    "conversion",
	ClassDefault:       "default",
	ClassLanguage:      "language",
	ClassOperator:      "operator",
	ClassOpClass:       "opclass",
	ClassRewrite:       "rewrite",
	ClassTrigger:       "trigger",
	ClassSchema:        "schema",
	ClassRole:          "role",
	ClassDatabase:      "database",
	ClassTablespace:    "tablespace",
	ClassFilespace:     "filespace",
	ClassFilesystem:    "filesystem",
	ClassFdw:           "fdw",
	ClassForeignServer: "foreign_server",
	ClassUserMapping:   "user_mapping",
	ClassExtProtocol:   "ext_protocol",
	ClassCompression:   "compression",
}

// String renders the class tag for diagnostics and logging.
func (c ObjectClass) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("ObjectClass(%d)", int(c))
	}
	return classNames[c]
}

// ObjectID identifies an object within its class.
type ObjectID uint32

// SubID identifies a sub-component of an object (e.g. a column number).
// Zero means "the whole object". Orderings treat SubID as unsigned so
// that 0 always sorts first.
type SubID uint32

// ObjectAddress is the immutable identity triple for a catalog object
// or sub-object. Two addresses are equal iff all three fields match.
type ObjectAddress struct {
	ClassID  ObjectClass
	ObjectID ObjectID
	SubID    SubID
}

// IsWhole reports whether a names an entire object rather than a
// sub-component.
func (a ObjectAddress) IsWhole() bool { return a.SubID == 0 }

// Subsumes reports whether a is the whole-object super-object of b:
// same class and object id, a is whole, and b need not be.
func (a ObjectAddress) Subsumes(b ObjectAddress) bool {
	return a.IsWhole() && a.ClassID == b.ClassID && a.ObjectID == b.ObjectID
}

func (a ObjectAddress) String() string {
	if a.SubID == 0 {
		return fmt.Sprintf("%s(%d)", a.ClassID, a.ObjectID)
	}
	return fmt.Sprintf("%s(%d).%d", a.ClassID, a.ObjectID, a.SubID)
}

// Less orders addresses by (ClassID, ObjectID, SubID) with SubID
// compared as unsigned, so that a whole-object entry (SubID 0) always
// precedes any of its sub-objects.
func Less(a, b ObjectAddress) bool {
	if a.ClassID != b.ClassID {
		return a.ClassID < b.ClassID
	}
	if a.ObjectID != b.ObjectID {
		return a.ObjectID < b.ObjectID
	}
	return a.SubID < b.SubID
}

// initialSetCapacity is the starting capacity an AddressSet grows
// from by doubling, mirroring the teacher storage layer's small
// initial-map sizing before it grows under load.
const initialSetCapacity = 32

// Set is an expandable, order-preserving, deduplicating collection of
// ObjectAddress values. The zero value is not usable; construct one
// with NewSet.
type Set struct {
	items []ObjectAddress
	// index speeds up Present by mapping (ClassID, ObjectID) to the
	// sub-ids seen so far, including a sentinel for "whole object seen".
	index map[classObjectKey][]SubID
}

type classObjectKey struct {
	class ObjectClass
	obj   ObjectID
}

// NewSet creates an empty AddressSet with a small initial backing
// capacity that doubles on overflow, matching the growth policy
// described for this component.
func NewSet() *Set {
	return &Set{
		items: make([]ObjectAddress, 0, initialSetCapacity),
		index: make(map[classObjectKey][]SubID, initialSetCapacity),
	}
}

// Len returns the number of addresses appended so far (pre-dedup
// count; Dedup may shrink this).
func (s *Set) Len() int { return len(s.items) }

// Items returns the set's addresses in insertion order (or sorted
// order after Dedup). The returned slice must not be mutated.
func (s *Set) Items() []ObjectAddress { return s.items }

// AppendExact appends a as given, without deduplication, preserving
// insertion order. Use this when the caller already knows a is new.
func (s *Set) AppendExact(a ObjectAddress) {
	s.items = append(s.items, a)
	key := classObjectKey{a.ClassID, a.ObjectID}
	s.index[key] = append(s.index[key], a.SubID)
}

// AppendByClass appends an address built from a raw class tag,
// object id, and sub id. It exists for callers that resolve class
// tags dynamically (e.g. from a catalog class id) before constructing
// the address.
func (s *Set) AppendByClass(cls ObjectClass, objID ObjectID, sub SubID) {
	s.AppendExact(ObjectAddress{ClassID: cls, ObjectID: objID, SubID: sub})
}

// Present reports whether q is already represented in s, honoring the
// subsumption rule: q is present if some entry exactly matches q, or
// if the whole-object entry (q.ClassID, q.ObjectID, 0) is present.
func (s *Set) Present(q ObjectAddress) bool {
	subs, ok := s.index[classObjectKey{q.ClassID, q.ObjectID}]
	if !ok {
		return false
	}
	for _, sub := range subs {
		if sub == q.SubID || sub == 0 {
			return true
		}
	}
	return false
}

// Dedup sorts the set by (ClassID, ObjectID, SubID-as-unsigned),
// drops exact duplicates, and drops a whole-object entry (c, o, 0)
// whenever some (c, o, k>0) entry is present, keeping each distinct
// partial SubID once. This implements the deduplication law: no two surviving entries
// share (ClassID, ObjectID) unless both have SubID > 0.
func (s *Set) Dedup() {
	if len(s.items) == 0 {
		return
	}
	sort.Slice(s.items, func(i, j int) bool { return Less(s.items[i], s.items[j]) })

	out := s.items[:0:0]
	i := 0
	for i < len(s.items) {
		j := i
		cur := s.items[i]
		// Collect the run sharing (ClassID, ObjectID).
		var sawWhole bool
		var partial *ObjectAddress
		for j < len(s.items) && s.items[j].ClassID == cur.ClassID && s.items[j].ObjectID == cur.ObjectID {
			if s.items[j].SubID == 0 {
				sawWhole = true
			} else if partial == nil {
				p := s.items[j]
				partial = &p
			}
			j++
		}
		switch {
		case partial != nil:
			// A whole-object ref is absorbed by any present partial ref:
			// keep the partial entry (or entries, sub-objects are distinct).
			k := i
			seen := make(map[SubID]bool)
			for k < j {
				if s.items[k].SubID != 0 && !seen[s.items[k].SubID] {
					seen[s.items[k].SubID] = true
					out = append(out, s.items[k])
				}
				k++
			}
		case sawWhole:
			out = append(out, ObjectAddress{ClassID: cur.ClassID, ObjectID: cur.ObjectID, SubID: 0})
		}
		i = j
	}
	s.items = out
	s.index = make(map[classObjectKey][]SubID, len(s.items))
	for _, a := range s.items {
		key := classObjectKey{a.ClassID, a.ObjectID}
		s.index[key] = append(s.index[key], a.SubID)
	}
}

// Dump renders every entry in the set, one per line, for debug
// introspection tooling, the way the teacher's CompositeIndex/RangeIndex expose a Stats()
// accessor for the same purpose.
func (s *Set) Dump() string {
	var b strings.Builder
	for _, a := range s.items {
		fmt.Fprintf(&b, "%s\n", a)
	}
	return b.String()
}

// Free releases the set's backing storage. Go's garbage collector
// makes this a no-op in practice; it is kept as an explicit lifecycle
// hook so callers modeled on the reference implementation's
// alloc/free pairing read naturally, and so a future pooled
// implementation has a single place to hook into.
func (s *Set) Free() {
	s.items = nil
	s.index = nil
}
