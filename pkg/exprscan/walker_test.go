package exprscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/edgestore"
)

func TestScanner_VarOverRelation(t *testing.T) {
	rtable := RangeTable{{Kind: RTERelation, RelID: 100}}
	v := Var{VarLevelsUp: 0, VarNo: 1, AttNo: 3}

	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(v, ScopeStack{rtable}, set))

	require.Len(t, set.Items(), 1)
	assert.Equal(t, address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 100, SubID: 3}, set.Items()[0])
}

func TestScanner_WholeRowVarContributesNothing(t *testing.T) {
	rtable := RangeTable{{Kind: RTERelation, RelID: 100}}
	v := Var{VarLevelsUp: 0, VarNo: 1, AttNo: 0}

	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(v, ScopeStack{rtable}, set))
	assert.Equal(t, 0, set.Len())
}

func TestScanner_VarOverJoinRecursesAtOuterScope(t *testing.T) {
	joinRTE := &RangeTblEntry{
		Kind: RTEJoin,
		JoinAliasVars: []Node{
			Var{VarLevelsUp: 0, VarNo: 1, AttNo: 2},
		},
	}
	outerRtable := RangeTable{{Kind: RTERelation, RelID: 7}, joinRTE}
	innerRtable := RangeTable{{Kind: RTERelation, RelID: 8}}

	// The Var sits in the inner scope and points one level up at the
	// join; the join's alias var is resolved in the join's own (outer)
	// scope, so it names relation 7, not the inner scope's relation 8.
	v := Var{VarLevelsUp: 1, VarNo: 2, AttNo: 1}
	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(v, ScopeStack{outerRtable, innerRtable}, set))

	require.Len(t, set.Items(), 1)
	assert.Equal(t, address.ObjectID(7), set.Items()[0].ObjectID)
	assert.Equal(t, address.SubID(2), set.Items()[0].SubID)
}

func TestScanner_InvalidVarLevelRaises(t *testing.T) {
	rtable := RangeTable{{Kind: RTERelation, RelID: 1}}
	v := Var{VarLevelsUp: 5, VarNo: 1, AttNo: 1}
	s := NewScanner(nil)
	err := s.Scan(v, ScopeStack{rtable}, address.NewSet())
	assert.ErrorIs(t, err, ErrInvalidVarLevel)
}

func TestScanner_InvalidVarNoRaises(t *testing.T) {
	rtable := RangeTable{{Kind: RTERelation, RelID: 1}}
	v := Var{VarLevelsUp: 0, VarNo: 9, AttNo: 1}
	s := NewScanner(nil)
	err := s.Scan(v, ScopeStack{rtable}, address.NewSet())
	assert.ErrorIs(t, err, ErrInvalidVarNo)
}

func TestScanner_ConstAlwaysRecordsType(t *testing.T) {
	c := Const{ConstType: 23}
	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(c, nil, set))
	require.Len(t, set.Items(), 1)
	assert.Equal(t, address.ClassType, set.Items()[0].ClassID)
}

func TestScanner_ConstRegclassAddsExtraRefWhenExists(t *testing.T) {
	c := Const{ConstType: 2205, Reg: RegClass, Value: 16401}
	set := address.NewSet()
	s := NewScanner(AlwaysExists{})
	require.NoError(t, s.Scan(c, nil, set))

	require.Len(t, set.Items(), 2)
	assert.Contains(t, set.Items(), address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 16401})
}

type noneExist struct{}

func (noneExist) Exists(address.ObjectClass, address.ObjectID) bool { return false }

func TestScanner_ConstRegclassSkippedWhenNotExistent(t *testing.T) {
	c := Const{ConstType: 2205, Reg: RegClass, Value: 16401}
	set := address.NewSet()
	s := NewScanner(noneExist{})
	require.NoError(t, s.Scan(c, nil, set))
	require.Len(t, set.Items(), 1, "only the Type reference should survive")
}

func TestScanner_FuncExprDescendsIntoArgs(t *testing.T) {
	rtable := RangeTable{{Kind: RTERelation, RelID: 1}}
	fn := FuncExpr{
		FuncID: 50,
		Args:   []Node{Var{VarNo: 1, AttNo: 1}, Const{ConstType: 23}},
	}
	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(fn, ScopeStack{rtable}, set))

	assert.Len(t, set.Items(), 3) // proc, var->relation, const->type
}

func TestScanner_RowExprDoesNotDescend(t *testing.T) {
	row := RowExpr{RowTypeID: 9001, Args: []Node{Const{ConstType: 23}}}
	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(row, nil, set))
	require.Len(t, set.Items(), 1, "RowExpr only records its row type, per the discovery table")
}

func TestScanner_SubPlanFailsUnsupported(t *testing.T) {
	s := NewScanner(nil)
	err := s.Scan(SubPlan{}, nil, address.NewSet())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestScanner_QueryPushesAndPopsScope(t *testing.T) {
	inner := Query{
		RangeTable: RangeTable{{Kind: RTERelation, RelID: 42}},
		Targets:    []Node{Var{VarLevelsUp: 0, VarNo: 1, AttNo: 1}},
	}
	outer := Query{
		RangeTable: RangeTable{{Kind: RTERelation, RelID: 1}},
		Targets:    []Node{inner},
	}
	set := address.NewSet()
	s := NewScanner(nil)
	require.NoError(t, s.Scan(outer, nil, set))

	var sawOuter, sawInner bool
	for _, a := range set.Items() {
		if a.ObjectID == 1 {
			sawOuter = true
		}
		if a.ObjectID == 42 {
			sawInner = true
		}
	}
	assert.True(t, sawOuter)
	assert.True(t, sawInner)
}

func TestRecordDependencyOnExpr_WritesEdges(t *testing.T) {
	store := edgestore.NewMemoryStore()
	s := NewScanner(nil)
	view := address.ObjectAddress{ClassID: address.ClassRelation, ObjectID: 500}
	rtable := RangeTable{{Kind: RTERelation, RelID: 1}}
	expr := FuncExpr{FuncID: 50, Args: []Node{Var{VarNo: 1, AttNo: 1}}}

	require.NoError(t, RecordDependencyOnExpr(store, s, view, expr, ScopeStack{rtable}, edgestore.Normal))

	out, err := store.ScanOutgoing(view)
	require.NoError(t, err)
	assert.Len(t, out, 2) // Proc(50), Class(1).1
}

func TestRecordDependencyOnSingleRelExpr_PartitionsSelfKind(t *testing.T) {
	store := edgestore.NewMemoryStore()
	s := NewScanner(nil)
	def := address.ObjectAddress{ClassID: address.ClassDefault, ObjectID: 10}
	expr := OpExpr{OpNo: 5, Args: []Node{Var{VarNo: 1, AttNo: 1}, Const{ConstType: 23}}}

	require.NoError(t, RecordDependencyOnSingleRelExpr(store, s, def, expr, address.ObjectID(200), edgestore.Normal, edgestore.Auto))

	out, err := store.ScanOutgoing(def)
	require.NoError(t, err)

	var selfKindSeen, normalKindSeen bool
	for _, e := range out {
		if e.Referenced.ClassID == address.ClassRelation && e.Referenced.ObjectID == 200 {
			require.Equal(t, edgestore.Auto, e.Kind)
			selfKindSeen = true
		} else {
			require.Equal(t, edgestore.Normal, e.Kind)
			normalKindSeen = true
		}
	}
	assert.True(t, selfKindSeen)
	assert.True(t, normalKindSeen)
}
