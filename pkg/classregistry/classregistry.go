// Package classregistry implements the ClassRegistry component of
// spec §4.5: a static bijection between ObjectClass tags and opaque
// catalog-class ids, plus dispatch_drop, which invokes the
// per-class destructor an embedder has registered.
//
// Individual per-class destructors (drop table, drop function, …)
// are out of this engine's scope (spec §1); Registry only knows how
// to route a drop to whichever Destructor the embedder supplied.
package classregistry

import (
	"errors"
	"fmt"

	"github.com/orneryd/catalogdep/pkg/address"
)

// CatalogClassID is the embedder's opaque identifier for a catalog
// class (e.g. a pg_class-style OID). ClassRegistry only needs it to
// be unique per ObjectClass.
type CatalogClassID uint32

// Destructor performs the concrete, class-specific deletion of the
// object named by addr. It is supplied by the embedding catalog, not
// by this engine.
type Destructor func(addr address.ObjectAddress) error

// Errors.
var (
	ErrUnrecognizedObjectClass = errors.New("classregistry: unrecognized object class")
	ErrUnhandledClass          = errors.New("classregistry: class is not droppable through this engine")
	ErrDuplicateCatalogID      = errors.New("classregistry: catalog class id registered to more than one ObjectClass")
)

// neverHandled lists the classes the engine must never select as a
// destructor target in normal flow (spec §4.5): Role, Database, and
// Tablespace are dropped through other commands entirely.
var neverHandled = map[address.ObjectClass]bool{
	address.ClassRole:       true,
	address.ClassDatabase:   true,
	address.ClassTablespace: true,
}

// RelationDestructors resolves the three-way dispatch spec §4.5
// requires for ClassRelation: index drop, column drop (subId != 0),
// or heap-drop-with-catalog, selected without the caller needing to
// re-implement that branching at every call site.
type RelationDestructors struct {
	DropIndex  Destructor
	DropColumn Destructor
	DropHeap   Destructor
	// IsIndex reports whether objID names an index (as opposed to a
	// heap relation); required when DropIndex/DropHeap are both set.
	IsIndex func(objID address.ObjectID) bool
}

func (r RelationDestructors) dispatch(addr address.ObjectAddress) error {
	if addr.SubID != 0 {
		if r.DropColumn == nil {
			return fmt.Errorf("classregistry: %w: no column destructor registered", ErrUnhandledClass)
		}
		return r.DropColumn(addr)
	}
	if r.IsIndex != nil && r.IsIndex(addr.ObjectID) {
		if r.DropIndex == nil {
			return fmt.Errorf("classregistry: %w: no index destructor registered", ErrUnhandledClass)
		}
		return r.DropIndex(addr)
	}
	if r.DropHeap == nil {
		return fmt.Errorf("classregistry: %w: no heap destructor registered", ErrUnhandledClass)
	}
	return r.DropHeap(addr)
}

// Registry is the ObjectClass <-> CatalogClassID bijection plus the
// per-class destructor table.
type Registry struct {
	classToID map[address.ObjectClass]CatalogClassID
	idToClass map[CatalogClassID]address.ObjectClass

	relation    RelationDestructors
	destructors map[address.ObjectClass]Destructor
}

// New builds a Registry from an explicit ObjectClass -> CatalogClassID
// map. It panics if two classes share a catalog id (an unrecognizable
// bijection is a programming error the embedder must fix before
// startup, not a runtime condition to recover from), matching the
// teacher's pattern of failing fast on malformed static configuration.
//
// It also panics if classIDs omits any member of the closed
// address.ObjectClass enumeration: the bijection must be total over
// every known class at registration time, the same exhaustiveness the
// source's compile-time switch gives for free, rather than waiting
// for DispatchDrop to discover a missing class at drop time.
func New(classIDs map[address.ObjectClass]CatalogClassID) *Registry {
	r := &Registry{
		classToID:   make(map[address.ObjectClass]CatalogClassID, len(classIDs)),
		idToClass:   make(map[CatalogClassID]address.ObjectClass, len(classIDs)),
		destructors: make(map[address.ObjectClass]Destructor),
	}
	for class, id := range classIDs {
		if existing, ok := r.idToClass[id]; ok {
			panic(fmt.Sprintf("classregistry: %v: catalog id %d already bound to %v, cannot also bind %v", ErrDuplicateCatalogID, id, existing, class))
		}
		r.classToID[class] = id
		r.idToClass[id] = class
	}
	for i := 0; i < address.NumObjectClasses(); i++ {
		class := address.ObjectClass(i)
		if _, ok := r.classToID[class]; !ok {
			panic(fmt.Sprintf("classregistry: %v: no catalog class id bound for %v", ErrUnrecognizedObjectClass, class))
		}
	}
	return r
}

// ClassFromCatalogID translates an opaque catalog class id to its
// ObjectClass tag.
func (r *Registry) ClassFromCatalogID(id CatalogClassID) (address.ObjectClass, error) {
	class, ok := r.idToClass[id]
	if !ok {
		return 0, ErrUnrecognizedObjectClass
	}
	return class, nil
}

// CatalogIDFromClass translates an ObjectClass tag to its opaque
// catalog class id.
func (r *Registry) CatalogIDFromClass(class address.ObjectClass) (CatalogClassID, error) {
	id, ok := r.classToID[class]
	if !ok {
		return 0, ErrUnrecognizedObjectClass
	}
	return id, nil
}

// GetObjectClass reports the ObjectClass of addr. Since ObjectAddress
// already carries its class tag directly, this mostly validates that
// the class is one the registry recognizes at all.
func (r *Registry) GetObjectClass(addr address.ObjectAddress) (address.ObjectClass, error) {
	if _, ok := r.classToID[addr.ClassID]; !ok {
		return 0, ErrUnrecognizedObjectClass
	}
	return addr.ClassID, nil
}

// RegisterRelationDestructors wires the three-way ClassRelation
// dispatch (spec §4.5).
func (r *Registry) RegisterRelationDestructors(d RelationDestructors) {
	r.relation = d
}

// RegisterDestructor wires a single-destructor class. Registering a
// destructor for Role, Database, or Tablespace panics: the spec is
// explicit that the engine must never select them as drop targets,
// so allowing one to be registered would silently paper over a
// caller mistake until it mattered at runtime.
func (r *Registry) RegisterDestructor(class address.ObjectClass, d Destructor) {
	if neverHandled[class] {
		panic(fmt.Sprintf("classregistry: %v is never handled by this engine; drop it through its owning command instead", class))
	}
	r.destructors[class] = d
}

// DispatchDrop invokes the per-class destructor for addr (spec §4.5
// dispatch_drop).
func (r *Registry) DispatchDrop(addr address.ObjectAddress) error {
	if _, ok := r.classToID[addr.ClassID]; !ok {
		return ErrUnrecognizedObjectClass
	}
	if neverHandled[addr.ClassID] {
		return fmt.Errorf("classregistry: %w: %v", ErrUnhandledClass, addr.ClassID)
	}
	if addr.ClassID == address.ClassRelation {
		return r.relation.dispatch(addr)
	}
	d, ok := r.destructors[addr.ClassID]
	if !ok {
		return fmt.Errorf("classregistry: %w: %v has no registered destructor", ErrUnhandledClass, addr.ClassID)
	}
	return d(addr)
}
