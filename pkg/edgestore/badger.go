// BadgerDB-backed EdgeStore, modeled on the teacher's BadgerEngine
// (pkg/storage/badger.go / badger_serialization.go): single-byte key
// prefixes, prefix-iterated secondary indexes, and JSON row
// serialization.
package edgestore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/orneryd/catalogdep/pkg/address"
)

// Key prefixes for BadgerDB storage organization. Using single-byte
// prefixes for efficiency, following the teacher's convention.
const (
	prefixEdgeRow       = byte(0x01) // edgerow:rowID -> DependencyEdge (JSON)
	prefixOutgoingIndex = byte(0x02) // out:classID:objID:rowID -> {}
	prefixIncomingIndex = byte(0x03) // in:classID:objID:rowID -> {}
)

func encodeRowID(id uuid.UUID) []byte {
	b := make([]byte, 16)
	copy(b, id[:])
	return b
}

func edgeRowKey(rowID uuid.UUID) []byte {
	key := make([]byte, 0, 17)
	key = append(key, prefixEdgeRow)
	key = append(key, encodeRowID(rowID)...)
	return key
}

func indexPrefix(prefix byte, class address.ObjectClass, obj address.ObjectID) []byte {
	key := make([]byte, 0, 9)
	key = append(key, prefix)
	var classBuf, objBuf [4]byte
	binary.BigEndian.PutUint32(classBuf[:], uint32(class))
	binary.BigEndian.PutUint32(objBuf[:], uint32(obj))
	key = append(key, classBuf[:]...)
	key = append(key, objBuf[:]...)
	return key
}

func indexKey(prefix byte, class address.ObjectClass, obj address.ObjectID, rowID uuid.UUID) []byte {
	key := indexPrefix(prefix, class, obj)
	return append(key, encodeRowID(rowID)...)
}

func rowIDFromIndexKey(key []byte) (uuid.UUID, bool) {
	if len(key) != 1+4+4+16 {
		return uuid.UUID{}, false
	}
	var id uuid.UUID
	copy(id[:], key[9:])
	return id, true
}

type badgerRow struct {
	Dependent  address.ObjectAddress
	Referenced address.ObjectAddress
	Kind       DependencyType
}

// BadgerStore is a persistent, disk-backed EdgeStore.
//
// Thread Safety:
//
//	All delete-path scans and mutations serialize through mu, standing
//	in for the spec's mandatory per-row write lock: the whole table is
//	treated as row-exclusive for the duration of any single operation,
//	which is a stronger (and simpler) guarantee than true per-row
//	locking and is sufficient given the engine's single-writer,
//	single-transaction usage model (spec §5).
type BadgerStore struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

// NewBadgerStore opens (or creates) a persistent EdgeStore at dataDir.
func NewBadgerStore(dataDir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("edgestore: open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreInMemory opens an in-memory BadgerDB instance: useful
// for tests that want BadgerStore's exact code path without touching
// disk, following the teacher's BadgerOptions.InMemory knob.
func NewBadgerStoreInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("edgestore: open in-memory badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) scan(prefixByte byte, byDependentEndpoint bool, a address.ObjectAddress) ([]DependencyEdge, error) {
	var out []DependencyEdge
	prefix := indexPrefix(prefixByte, a.ClassID, a.ObjectID)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rowID, ok := rowIDFromIndexKey(it.Item().KeyCopy(nil))
			if !ok {
				continue
			}
			item, err := txn.Get(edgeRowKey(rowID))
			if err != nil {
				continue
			}
			var row badgerRow
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				continue
			}
			endpoint := row.Referenced
			if byDependentEndpoint {
				endpoint = row.Dependent
			}
			if !subsumedMatch(endpoint, a) {
				continue
			}
			out = append(out, DependencyEdge{Dependent: row.Dependent, Referenced: row.Referenced, Kind: row.Kind, rowID: rowID})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("edgestore: scan: %w", err)
	}
	return out, nil
}

// ScanOutgoingForDelete implements Store.
func (b *BadgerStore) ScanOutgoingForDelete(a address.ObjectAddress) ([]DependencyEdge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	return b.scan(prefixOutgoingIndex, true, a)
}

// ScanIncomingForDelete implements Store.
func (b *BadgerStore) ScanIncomingForDelete(a address.ObjectAddress) ([]DependencyEdge, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	return b.scan(prefixIncomingIndex, false, a)
}

// ScanOutgoing implements Store (read-only).
func (b *BadgerStore) ScanOutgoing(a address.ObjectAddress) ([]DependencyEdge, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	return b.scan(prefixOutgoingIndex, true, a)
}

// ScanIncoming implements Store (read-only).
func (b *BadgerStore) ScanIncoming(a address.ObjectAddress) ([]DependencyEdge, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	return b.scan(prefixIncomingIndex, false, a)
}

// Delete implements Store.
func (b *BadgerStore) Delete(e DependencyEdge) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrStoreClosed
	}
	rowID, ok := e.rowID.(uuid.UUID)
	if !ok {
		return ErrNotFound
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(edgeRowKey(rowID)); err != nil {
			return err
		}
		if err := txn.Delete(indexKey(prefixOutgoingIndex, e.Dependent.ClassID, e.Dependent.ObjectID, rowID)); err != nil {
			return err
		}
		return txn.Delete(indexKey(prefixIncomingIndex, e.Referenced.ClassID, e.Referenced.ObjectID, rowID))
	})
}

// InsertMany implements Store.
func (b *BadgerStore) InsertMany(dependent address.ObjectAddress, refs []address.ObjectAddress, kind DependencyType) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	if kind == Pin && dependent != (address.ObjectAddress{}) {
		return ErrInvalidPinEdge
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrStoreClosed
	}
	return b.db.Update(func(txn *badger.Txn) error {
		for _, ref := range refs {
			rowID := uuid.New()
			row := badgerRow{Dependent: dependent, Referenced: ref, Kind: kind}
			data, err := json.Marshal(row)
			if err != nil {
				return err
			}
			if err := txn.Set(edgeRowKey(rowID), data); err != nil {
				return err
			}
			if err := txn.Set(indexKey(prefixOutgoingIndex, dependent.ClassID, dependent.ObjectID, rowID), []byte{}); err != nil {
				return err
			}
			if err := txn.Set(indexKey(prefixIncomingIndex, ref.ClassID, ref.ObjectID, rowID), []byte{}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Publish implements Store. BadgerDB commits are synchronous and
// immediately visible to new read/write transactions, so by the time
// InsertMany/Delete return, the change is already durable in the
// sense spec §5 requires; Publish runs a zero-op read/write
// transaction purely to give callers an explicit barrier to call,
// matching the shape of the spec's recursiveDeletion control flow.
func (b *BadgerStore) Publish() error {
	return b.db.Update(func(txn *badger.Txn) error { return nil })
}

// Dump implements Store by scanning every prefixEdgeRow key, following
// the teacher's Stats()-style full-table introspection accessors.
func (b *BadgerStore) Dump() ([]DependencyEdge, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrStoreClosed
	}
	var out []DependencyEdge
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte{prefixEdgeRow}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if len(key) != 1+16 {
				continue
			}
			var rowID uuid.UUID
			copy(rowID[:], key[1:])
			var row badgerRow
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			}); err != nil {
				continue
			}
			out = append(out, DependencyEdge{Dependent: row.Dependent, Referenced: row.Referenced, Kind: row.Kind, rowID: rowID})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("edgestore: dump: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}
