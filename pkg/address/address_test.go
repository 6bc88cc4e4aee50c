package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_PresentSubsumption(t *testing.T) {
	s := NewSet()
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100})

	assert.True(t, s.Present(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 3}),
		"whole-object entry must subsume a sub-object query")
	assert.False(t, s.Present(ObjectAddress{ClassID: ClassRelation, ObjectID: 200, SubID: 3}),
		"unrelated object id must not be present")

	s2 := NewSet()
	s2.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 3})
	assert.False(t, s2.Present(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 0}),
		"a partial entry does not make the whole object present")
	assert.True(t, s2.Present(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 3}))
}

func TestSet_DedupFoldsWholeIntoPartial(t *testing.T) {
	s := NewSet()
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 0})
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 2})
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 2})
	s.Dedup()

	require.Len(t, s.Items(), 1)
	assert.Equal(t, SubID(2), s.Items()[0].SubID)
}

func TestSet_DedupKeepsDistinctSubObjects(t *testing.T) {
	s := NewSet()
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 1})
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 100, SubID: 2})
	s.Dedup()

	require.Len(t, s.Items(), 2)
	assert.Equal(t, SubID(1), s.Items()[0].SubID)
	assert.Equal(t, SubID(2), s.Items()[1].SubID)
}

func TestSet_DedupWholeOnlySurvivesAlone(t *testing.T) {
	s := NewSet()
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 55, SubID: 0})
	s.Dedup()

	require.Len(t, s.Items(), 1)
	assert.True(t, s.Items()[0].IsWhole())
}

func TestSet_GrowthPreservesOrderBeforeDedup(t *testing.T) {
	s := NewSet()
	for i := range 64 {
		s.AppendExact(ObjectAddress{ClassID: ClassProc, ObjectID: ObjectID(i)})
	}
	require.Equal(t, 64, s.Len())
	for i, a := range s.Items() {
		assert.Equal(t, ObjectID(i), a.ObjectID)
	}
}

func TestObjectAddress_Subsumes(t *testing.T) {
	whole := ObjectAddress{ClassID: ClassRelation, ObjectID: 9}
	part := ObjectAddress{ClassID: ClassRelation, ObjectID: 9, SubID: 1}
	assert.True(t, whole.Subsumes(part))
	assert.False(t, part.Subsumes(whole))
}

func TestLess_SubIDUnsignedOrdering(t *testing.T) {
	a := ObjectAddress{ClassID: ClassRelation, ObjectID: 1, SubID: 0}
	b := ObjectAddress{ClassID: ClassRelation, ObjectID: 1, SubID: 1}
	assert.True(t, Less(a, b))
	assert.False(t, Less(b, a))
}

func TestSet_Dump(t *testing.T) {
	s := NewSet()
	s.AppendExact(ObjectAddress{ClassID: ClassRelation, ObjectID: 16401})
	s.AppendExact(ObjectAddress{ClassID: ClassProc, ObjectID: 50, SubID: 2})

	out := s.Dump()
	assert.Contains(t, out, "relation(16401)")
	assert.Contains(t, out, "proc(50).2")
}

func TestObjectClass_String(t *testing.T) {
	assert.Equal(t, "relation", ClassRelation.String())
	assert.Equal(t, "compression", ClassCompression.String())
}
