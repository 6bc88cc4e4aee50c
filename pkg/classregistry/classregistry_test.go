package classregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/catalogdep/pkg/address"
)

func defaultClassIDs() map[address.ObjectClass]CatalogClassID {
	ids := make(map[address.ObjectClass]CatalogClassID, address.NumObjectClasses())
	for i := 0; i < address.NumObjectClasses(); i++ {
		ids[address.ObjectClass(i)] = CatalogClassID(1000 + i)
	}
	return ids
}

func TestRegistry_BijectionRoundTrips(t *testing.T) {
	r := New(defaultClassIDs())
	id, err := r.CatalogIDFromClass(address.ClassProc)
	require.NoError(t, err)

	class, err := r.ClassFromCatalogID(id)
	require.NoError(t, err)
	assert.Equal(t, address.ClassProc, class)
}

func TestRegistry_DuplicateCatalogIDPanics(t *testing.T) {
	ids := map[address.ObjectClass]CatalogClassID{
		address.ClassProc: 1,
		address.ClassType: 1,
	}
	assert.Panics(t, func() { New(ids) })
}

func TestRegistry_MissingClassIDPanics(t *testing.T) {
	ids := defaultClassIDs()
	delete(ids, address.ClassCompression)
	assert.Panics(t, func() { New(ids) }, "the bijection must be total over every ObjectClass at registration time")
}

func TestRegistry_NeverHandledClassesRejectRegistration(t *testing.T) {
	r := New(defaultClassIDs())
	assert.Panics(t, func() {
		r.RegisterDestructor(address.ClassRole, func(address.ObjectAddress) error { return nil })
	})
}

func TestRegistry_DispatchDropNeverHandledFails(t *testing.T) {
	r := New(defaultClassIDs())
	err := r.DispatchDrop(address.ObjectAddress{ClassID: address.ClassDatabase, ObjectID: 1})
	assert.ErrorIs(t, err, ErrUnhandledClass)
}

func TestRegistry_DispatchDropUnregisteredClassFails(t *testing.T) {
	r := New(defaultClassIDs())
	err := r.DispatchDrop(address.ObjectAddress{ClassID: address.ClassCompression, ObjectID: 1})
	assert.ErrorIs(t, err, ErrUnhandledClass)
}

func TestRegistry_RelationDispatchChoosesByShape(t *testing.T) {
	var gotIndex, gotColumn, gotHeap bool
	r := New(defaultClassIDs())
	r.RegisterRelationDestructors(RelationDestructors{
		DropIndex:  func(address.ObjectAddress) error { gotIndex = true; return nil },
		DropColumn: func(address.ObjectAddress) error { gotColumn = true; return nil },
		DropHeap:   func(address.ObjectAddress) error { gotHeap = true; return nil },
		IsIndex:    func(id address.ObjectID) bool { return id == 77 },
	})

	require.NoError(t, r.DispatchDrop(address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 1, SubID: 3}))
	assert.True(t, gotColumn)

	require.NoError(t, r.DispatchDrop(address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 77}))
	assert.True(t, gotIndex)

	require.NoError(t, r.DispatchDrop(address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 2}))
	assert.True(t, gotHeap)
}

func TestRegistry_GetObjectClass(t *testing.T) {
	r := New(defaultClassIDs())
	class, err := r.GetObjectClass(address.ObjectAddress{ClassID: address.ClassSchema, ObjectID: 5})
	require.NoError(t, err)
	assert.Equal(t, address.ClassSchema, class)
}
