package dropengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/classregistry"
	"github.com/orneryd/catalogdep/pkg/edgestore"
)

// fakeResolver is a minimal descriptor.NameResolver good enough to
// render readable messages in test failures; it never fails a lookup.
type fakeResolver struct{}

func (fakeResolver) RelationName(id address.ObjectID) (string, string, bool, bool) {
	return "public", "rel", true, true
}
func (fakeResolver) ColumnName(relID address.ObjectID, attNo address.SubID) (string, bool) {
	return "col", true
}
func (fakeResolver) ProcName(id address.ObjectID) (string, bool)     { return "proc", true }
func (fakeResolver) TypeName(id address.ObjectID) (string, bool)     { return "type", true }
func (fakeResolver) OperatorName(id address.ObjectID) (string, bool) { return "op", true }
func (fakeResolver) OpClassName(id address.ObjectID) (string, string, bool) {
	return "opclass", "am", true
}
func (fakeResolver) GenericName(class address.ObjectClass, id address.ObjectID) (string, bool) {
	return "obj", true
}

// harness bundles a fresh store/registry/engine plus bookkeeping of
// which objects were actually destroyed, for assertions that don't
// depend on Stats.
type harness struct {
	t       *testing.T
	store   *edgestore.MemoryStore
	reg     *classregistry.Registry
	engine  *Engine
	dropped []address.ObjectAddress
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	classIDs := make(map[address.ObjectClass]classregistry.CatalogClassID, address.NumObjectClasses())
	for i := 0; i < address.NumObjectClasses(); i++ {
		classIDs[address.ObjectClass(i)] = classregistry.CatalogClassID(100 + i)
	}
	reg := classregistry.New(classIDs)

	h := &harness{t: t, store: edgestore.NewMemoryStore(), reg: reg}

	record := func(a address.ObjectAddress) error {
		h.dropped = append(h.dropped, a)
		return nil
	}
	reg.RegisterRelationDestructors(classregistry.RelationDestructors{
		DropHeap:   record,
		DropColumn: record,
		DropIndex:  record,
		IsIndex:    func(address.ObjectID) bool { return false },
	})
	for _, c := range []address.ObjectClass{
		address.ClassProc, address.ClassType, address.ClassCast, address.ClassConstraint,
		address.ClassConversion, address.ClassDefault, address.ClassLanguage, address.ClassOperator,
		address.ClassOpClass, address.ClassRewrite, address.ClassTrigger, address.ClassSchema,
		address.ClassFilespace, address.ClassFilesystem, address.ClassFdw, address.ClassForeignServer,
		address.ClassUserMapping, address.ClassExtProtocol,
	} {
		reg.RegisterDestructor(c, record)
	}

	h.engine = New(h.store, reg, fakeResolver{})
	h.engine.Logger = NopLogger
	h.engine.Stats = &Stats{}
	return h
}

func (h *harness) wasDropped(a address.ObjectAddress) bool {
	for _, d := range h.dropped {
		if d == a {
			return true
		}
	}
	return false
}

func rel(id address.ObjectID) address.ObjectAddress {
	return address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: id}
}

// Scenario 1: table T, view V with NORMAL -> T.
func TestPerformDeletion_NormalEdgeRestrictThenCascade(t *testing.T) {
	h := newHarness(t)
	table := rel(1)
	view := rel(2)
	require.NoError(t, h.store.InsertMany(view, []address.ObjectAddress{table}, edgestore.Normal))

	// recursiveDeletion performs its mutations inline as it recurses
	// (spec §4.6): on a RESTRICT violation the engine still severs
	// edges and calls destructors along the way, and relies on the
	// caller's surrounding transaction to roll everything back (spec
	// §1 Non-goals, §5 "rollback is delegated to the surrounding
	// transaction"). The contract this engine itself guarantees is the
	// returned error, not an in-process no-op.
	h2 := newHarness(t)
	table2, view2 := rel(1), rel(2)
	require.NoError(t, h2.store.InsertMany(view2, []address.ObjectAddress{table2}, edgestore.Normal))
	err := h2.engine.PerformDeletion(table2, Restrict)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependentObjectsStillExist)

	require.NoError(t, h.engine.PerformDeletion(table, Cascade))
	assert.True(t, h.wasDropped(view), "CASCADE must drop the dependent view")
	assert.True(t, h.wasDropped(table))
}

// Scenario 2: table T with column c; AUTO default D -> c.
func TestPerformDeletion_AutoEdgeCascadesSilently(t *testing.T) {
	h := newHarness(t)
	table := rel(1)
	column := address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 1, SubID: 2}
	def := address.ObjectAddress{ClassID: address.ClassDefault, ObjectID: 9}
	require.NoError(t, h.store.InsertMany(def, []address.ObjectAddress{column}, edgestore.Auto))

	require.NoError(t, h.engine.PerformDeletion(table, Restrict))
	assert.True(t, h.wasDropped(table))
	assert.True(t, h.wasDropped(def), "AUTO dependent must be silently cascaded even under RESTRICT")
}

// Scenario 3: composite type CT with INTERNAL dependent relation R.
func TestPerformDeletion_InternalRedirectsToOwner(t *testing.T) {
	h := newHarness(t)
	ct := address.ObjectAddress{ClassID: address.ClassType, ObjectID: 50}
	r := rel(51)
	require.NoError(t, h.store.InsertMany(r, []address.ObjectAddress{ct}, edgestore.Internal))

	err := h.engine.PerformDeletion(r, Cascade)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependentObjectsStillExist)
	assert.False(t, h.wasDropped(r))
	assert.False(t, h.wasDropped(ct))

	require.NoError(t, h.engine.PerformDeletion(ct, Cascade))
	assert.True(t, h.wasDropped(r), "INTERNAL dependent must be dropped via the owner's recursion")
	assert.True(t, h.wasDropped(ct))
}

// Scenario 4: cyclic pair F1 NORMAL-> F2, F2 NORMAL-> F1.
func TestPerformMultipleDeletions_CycleTerminatesWithoutDuplicateDrop(t *testing.T) {
	h := newHarness(t)
	f1 := address.ObjectAddress{ClassID: address.ClassProc, ObjectID: 1}
	f2 := address.ObjectAddress{ClassID: address.ClassProc, ObjectID: 2}
	require.NoError(t, h.store.InsertMany(f1, []address.ObjectAddress{f2}, edgestore.Normal))
	require.NoError(t, h.store.InsertMany(f2, []address.ObjectAddress{f1}, edgestore.Normal))

	require.NoError(t, h.engine.PerformMultipleDeletions([]address.ObjectAddress{f1, f2}, Cascade))

	count := 0
	for _, d := range h.dropped {
		if d == f1 || d == f2 {
			count++
		}
	}
	assert.Equal(t, 2, count, "each function must be dropped exactly once")
}

// Scenario 5: PIN edge on a built-in type.
func TestPerformDeletion_PinBlocksEvenUnderCascade(t *testing.T) {
	h := newHarness(t)
	builtin := address.ObjectAddress{ClassID: address.ClassType, ObjectID: 23}
	require.NoError(t, h.store.InsertMany(address.ObjectAddress{}, []address.ObjectAddress{builtin}, edgestore.Pin))

	err := h.engine.PerformDeletion(builtin, Cascade)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDependentObjectsStillExist)
	assert.False(t, h.wasDropped(builtin))
}

func TestPerformMultipleDeletions_NoDuplicateAcrossAutoAndDirectTarget(t *testing.T) {
	h := newHarness(t)
	table := rel(1)
	index := rel(2)
	require.NoError(t, h.store.InsertMany(index, []address.ObjectAddress{table}, edgestore.Auto))

	require.NoError(t, h.engine.PerformMultipleDeletions([]address.ObjectAddress{table, index}, Cascade))

	count := 0
	for _, d := range h.dropped {
		if d == index {
			count++
		}
	}
	assert.Equal(t, 1, count, "AUTO dependent that is also a direct target must be dropped exactly once")
}

func TestDeleteWhatDependsOn_LeavesTargetInPlace(t *testing.T) {
	h := newHarness(t)
	table := rel(1)
	view := rel(2)
	require.NoError(t, h.store.InsertMany(view, []address.ObjectAddress{table}, edgestore.Normal))

	require.NoError(t, h.engine.DeleteWhatDependsOn(table, true))
	assert.True(t, h.wasDropped(view))
	assert.False(t, h.wasDropped(table))
}

func TestPerformDeletion_MultipleInternalIsCorruption(t *testing.T) {
	h := newHarness(t)
	r := rel(1)
	ct1 := address.ObjectAddress{ClassID: address.ClassType, ObjectID: 10}
	ct2 := address.ObjectAddress{ClassID: address.ClassType, ObjectID: 11}
	require.NoError(t, h.store.InsertMany(r, []address.ObjectAddress{ct1, ct2}, edgestore.Internal))

	err := h.engine.PerformDeletion(ct1, Cascade)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMultipleInternal)
}

func TestStats_CountObjectsAndEdges(t *testing.T) {
	h := newHarness(t)
	table := rel(1)
	view := rel(2)
	require.NoError(t, h.store.InsertMany(view, []address.ObjectAddress{table}, edgestore.Normal))

	require.NoError(t, h.engine.PerformDeletion(table, Cascade))
	assert.Equal(t, 2, h.engine.Stats.ObjectsDeleted)
	assert.Equal(t, 1, h.engine.Stats.EdgesSevered)
}

func TestPerformDeletion_SameDependentViaTwoEdgesDropsOnce(t *testing.T) {
	h := newHarness(t)
	view := rel(1)
	dependent := address.ObjectAddress{ClassID: address.ClassProc, ObjectID: 9}
	require.NoError(t, h.store.InsertMany(dependent, []address.ObjectAddress{view}, edgestore.Normal))
	require.NoError(t, h.store.InsertMany(dependent, []address.ObjectAddress{view}, edgestore.Auto))

	require.NoError(t, h.engine.PerformDeletion(view, Cascade))

	count := 0
	for _, d := range h.dropped {
		if d == dependent {
			count++
		}
	}
	assert.Equal(t, 1, count, "a dependent reachable via two distinct-kind edges to the same object must still be dropped exactly once")
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "DEBUG1", SeverityDebug1.String())
	assert.Equal(t, "NOTICE", SeverityNotice.String())
}

func TestDropBehavior_String(t *testing.T) {
	assert.Equal(t, "RESTRICT", Restrict.String())
	assert.Equal(t, "CASCADE", Cascade.String())
}
