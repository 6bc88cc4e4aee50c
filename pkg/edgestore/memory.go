package edgestore

import (
	"sync"

	"github.com/orneryd/catalogdep/pkg/address"
)

// classObjectKey indexes edges by (ClassID, ObjectID) ignoring SubID,
// since both scan directions subsume all sub-objects of a whole-object
// query. This mirrors the teacher's label/outgoing/incoming secondary
// indexes in pkg/storage/memory.go, adapted from node ids to the
// (class, object) pair.
type classObjectKey struct {
	class address.ObjectClass
	obj   address.ObjectID
}

// MemoryStore is an in-process, map-indexed EdgeStore implementation.
// It is the default for tests and for the CLI's ephemeral mode, and
// is safe for concurrent use.
//
// Thread Safety:
//
//	All mutating operations and the ...ForDelete scans take the
//	store-wide write lock, standing in for the spec's mandatory
//	per-row lock: because the whole table is protected by one mutex,
//	holding it for the duration of a scan-for-delete already
//	serializes concurrent drops (a stronger guarantee than per-row
//	locking, acceptable for the in-memory implementation).
type MemoryStore struct {
	mu     sync.RWMutex
	closed bool

	nextRowID uint64
	rows      map[uint64]DependencyEdge

	byDependent  map[classObjectKey][]uint64
	byReferenced map[classObjectKey][]uint64
}

// NewMemoryStore creates an empty in-memory EdgeStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:         make(map[uint64]DependencyEdge),
		byDependent:  make(map[classObjectKey][]uint64),
		byReferenced: make(map[classObjectKey][]uint64),
	}
}

func subsumedMatch(endpoint, query address.ObjectAddress) bool {
	if endpoint.ClassID != query.ClassID || endpoint.ObjectID != query.ObjectID {
		return false
	}
	return query.SubID == 0 || endpoint.SubID == query.SubID
}

func (m *MemoryStore) scanLocked(index map[classObjectKey][]uint64, byDependent bool, a address.ObjectAddress) []DependencyEdge {
	key := classObjectKey{a.ClassID, a.ObjectID}
	var out []DependencyEdge
	for _, rowID := range index[key] {
		e, ok := m.rows[rowID]
		if !ok {
			continue
		}
		endpoint := e.Referenced
		if byDependent {
			endpoint = e.Dependent
		}
		if subsumedMatch(endpoint, a) {
			out = append(out, e)
		}
	}
	return out
}

// ScanOutgoingForDelete implements Store.
func (m *MemoryStore) ScanOutgoingForDelete(a address.ObjectAddress) ([]DependencyEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.scanLocked(m.byDependent, true, a), nil
}

// ScanIncomingForDelete implements Store.
func (m *MemoryStore) ScanIncomingForDelete(a address.ObjectAddress) ([]DependencyEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.scanLocked(m.byReferenced, false, a), nil
}

// ScanOutgoing implements Store (read-only, no row lock semantics).
func (m *MemoryStore) ScanOutgoing(a address.ObjectAddress) ([]DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.scanLocked(m.byDependent, true, a), nil
}

// ScanIncoming implements Store (read-only, no row lock semantics).
func (m *MemoryStore) ScanIncoming(a address.ObjectAddress) ([]DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return m.scanLocked(m.byReferenced, false, a), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(e DependencyEdge) error {
	rowID, ok := e.rowID.(uint64)
	if !ok {
		return ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	if _, ok := m.rows[rowID]; !ok {
		return ErrNotFound
	}
	delete(m.rows, rowID)
	m.removeFromIndex(m.byDependent, classObjectKey{e.Dependent.ClassID, e.Dependent.ObjectID}, rowID)
	m.removeFromIndex(m.byReferenced, classObjectKey{e.Referenced.ClassID, e.Referenced.ObjectID}, rowID)
	return nil
}

func (m *MemoryStore) removeFromIndex(index map[classObjectKey][]uint64, key classObjectKey, rowID uint64) {
	ids := index[key]
	for i, id := range ids {
		if id == rowID {
			index[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(index[key]) == 0 {
		delete(index, key)
	}
}

// InsertMany implements Store.
func (m *MemoryStore) InsertMany(dependent address.ObjectAddress, refs []address.ObjectAddress, kind DependencyType) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	if kind == Pin && dependent != (address.ObjectAddress{}) {
		return ErrInvalidPinEdge
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	for _, ref := range refs {
		m.nextRowID++
		rowID := m.nextRowID
		m.rows[rowID] = DependencyEdge{Dependent: dependent, Referenced: ref, Kind: kind, rowID: rowID}
		dKey := classObjectKey{dependent.ClassID, dependent.ObjectID}
		rKey := classObjectKey{ref.ClassID, ref.ObjectID}
		m.byDependent[dKey] = append(m.byDependent[dKey], rowID)
		m.byReferenced[rKey] = append(m.byReferenced[rKey], rowID)
	}
	return nil
}

// Publish implements Store. MemoryStore has no separate write buffer
// to flush: every mutation above is visible to readers as soon as the
// mutex is released, so Publish is a no-op retained for interface
// symmetry with BadgerStore.
func (m *MemoryStore) Publish() error { return nil }

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Len reports the total number of edge rows, for tests and CLI stats.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// Dump implements Store.
func (m *MemoryStore) Dump() ([]DependencyEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	out := make([]DependencyEdge, 0, len(m.rows))
	for _, e := range m.rows {
		out = append(out, e)
	}
	return out, nil
}
