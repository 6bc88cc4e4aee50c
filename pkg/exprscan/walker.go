package exprscan

import (
	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/edgestore"
)

// ExistenceChecker resolves whether a candidate referenced object
// actually exists, used only for the reg* Const disambiguation rule:
// a regproc/regoper/regclass/regtype literal's extra reference is
// recorded only when the named object is found to exist.
type ExistenceChecker interface {
	Exists(class address.ObjectClass, id address.ObjectID) bool
}

// AlwaysExists is an ExistenceChecker that treats every candidate as
// existing. It is useful for tests and callers that have already
// validated their expression trees against a catalog upstream.
type AlwaysExists struct{}

// Exists implements ExistenceChecker.
func (AlwaysExists) Exists(address.ObjectClass, address.ObjectID) bool { return true }

// Scanner walks expression trees and appends discovered references to
// a caller-supplied address.Set (spec §4.3).
type Scanner struct {
	Checker ExistenceChecker
}

// NewScanner builds a Scanner. A nil checker defaults to AlwaysExists.
func NewScanner(checker ExistenceChecker) *Scanner {
	if checker == nil {
		checker = AlwaysExists{}
	}
	return &Scanner{Checker: checker}
}

// Scan walks node within the given range-table scope stack
// (innermost scope last) and appends every discovered reference to
// set. The top-level caller normally passes a single-entry stack
// ([]RangeTable{rtable}); nested Query nodes push/pop their own
// scopes as they are encountered.
func (s *Scanner) Scan(node Node, stack ScopeStack, set *address.Set) error {
	if node == nil {
		return nil
	}
	switch n := node.(type) {
	case Var:
		return s.walkVar(n, stack, set)

	case Const:
		set.AppendByClass(address.ClassType, n.ConstType, 0)
		if n.IsNull || n.Reg == RegNone {
			return nil
		}
		class, ok := regClassFor(n.Reg)
		if !ok {
			return nil
		}
		if s.Checker.Exists(class, n.Value) {
			set.AppendByClass(class, n.Value, 0)
		}
		return nil

	case Param:
		set.AppendByClass(address.ClassType, n.ParamType, 0)
		return nil

	case FuncExpr:
		set.AppendByClass(address.ClassProc, n.FuncID, 0)
		return s.scanAll(n.Args, stack, set)

	case OpExpr:
		set.AppendByClass(address.ClassOperator, n.OpNo, 0)
		return s.scanAll(n.Args, stack, set)

	case Aggref:
		set.AppendByClass(address.ClassProc, n.FnOid, 0)
		return s.scanAll(n.Args, stack, set)

	case CoerceExpr:
		set.AppendByClass(address.ClassType, n.ResultType, 0)
		return nil

	case RowExpr:
		set.AppendByClass(address.ClassType, n.RowTypeID, 0)
		return nil

	case RowCompareExpr:
		for _, op := range n.OpNos {
			set.AppendByClass(address.ClassOperator, op, 0)
		}
		for _, oc := range n.OpClasses {
			set.AppendByClass(address.ClassOpClass, oc, 0)
		}
		return s.scanAll(n.Args, stack, set)

	case Query:
		return s.scanQuery(n, stack, set)

	case SubPlan:
		return ErrUnsupported

	default:
		return nil
	}
}

func (s *Scanner) scanAll(nodes []Node, stack ScopeStack, set *address.Set) error {
	for _, n := range nodes {
		if err := s.Scan(n, stack, set); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) scanQuery(q Query, stack ScopeStack, set *address.Set) error {
	for _, rte := range q.RangeTable {
		switch rte.Kind {
		case RTERelation:
			set.AppendByClass(address.ClassRelation, rte.RelID, 0)
		case RTEFunction, RTETableFunction:
			for _, t := range rte.FuncColTypes {
				set.AppendByClass(address.ClassType, t, 0)
			}
		}
	}

	nested := append(append(ScopeStack{}, stack...), q.RangeTable)
	if err := s.scanAll(q.Targets, nested, set); err != nil {
		return err
	}
	return nil
}

// scopeAt returns the RangeTable levelsup levels out from the
// innermost (last) entry of stack.
func scopeAt(stack ScopeStack, levelsup int) (RangeTable, error) {
	if levelsup < 0 {
		return nil, ErrInvalidVarLevel
	}
	idx := len(stack) - 1 - levelsup
	if idx < 0 || idx >= len(stack) {
		return nil, ErrInvalidVarLevel
	}
	return stack[idx], nil
}

func (s *Scanner) walkVar(v Var, stack ScopeStack, set *address.Set) error {
	if v.AttNo == 0 {
		return nil
	}
	if v.AttNo < 0 {
		return ErrInvalidAttrNo
	}
	rt, err := scopeAt(stack, v.VarLevelsUp)
	if err != nil {
		return err
	}
	if v.VarNo < 1 || v.VarNo > len(rt) {
		return ErrInvalidVarNo
	}
	rte := rt[v.VarNo-1]

	switch rte.Kind {
	case RTERelation:
		set.AppendByClass(address.ClassRelation, rte.RelID, address.SubID(v.AttNo))
		return nil

	case RTEJoin:
		if v.AttNo > len(rte.JoinAliasVars) {
			return ErrInvalidAttrNo
		}
		inner := rte.JoinAliasVars[v.AttNo-1]
		// Join alias vars are expressed relative to the join's own
		// query scope, not whatever deeper scope we were in when we
		// followed the Var into this join RTE: trim the stack back to
		// that scope before recursing (spec: "temporarily trims the
		// stack to match the join's scope").
		idx := len(stack) - 1 - v.VarLevelsUp
		trimmed := stack[:idx+1]
		return s.Scan(inner, trimmed, set)

	default:
		return nil
	}
}

func regClassFor(k RegKind) (address.ObjectClass, bool) {
	switch k {
	case RegProc, RegProcedure:
		return address.ClassProc, true
	case RegOper, RegOperator:
		return address.ClassOperator, true
	case RegClass:
		return address.ClassRelation, true
	case RegType:
		return address.ClassType, true
	default:
		return 0, false
	}
}

// RecordDependencyOnExpr scans expr within rtable/stack for kind's
// references and records them against depender (spec §4.3,
// "recordDependencyOnExpr").
func RecordDependencyOnExpr(store edgestore.Store, scanner *Scanner, depender address.ObjectAddress, expr Node, stack ScopeStack, kind edgestore.DependencyType) error {
	set := address.NewSet()
	if err := scanner.Scan(expr, stack, set); err != nil {
		return err
	}
	set.Dedup()
	return store.InsertMany(depender, set.Items(), kind)
}

// RecordDependencyOnSingleRelExpr scans expr using a synthetic
// one-entry range table naming relID, then partitions the discovered
// references: any reference to (Class, relID) itself is written with
// selfKind; everything else with kind (spec §4.3,
// "recordDependencyOnSingleRelExpr").
func RecordDependencyOnSingleRelExpr(store edgestore.Store, scanner *Scanner, depender address.ObjectAddress, expr Node, relID address.ObjectID, kind, selfKind edgestore.DependencyType) error {
	rtable := RangeTable{{Kind: RTERelation, RelID: relID}}
	set := address.NewSet()
	if err := scanner.Scan(expr, ScopeStack{rtable}, set); err != nil {
		return err
	}
	set.Dedup()

	var selfRefs, otherRefs []address.ObjectAddress
	for _, ref := range set.Items() {
		if ref.ClassID == address.ClassRelation && ref.ObjectID == relID {
			selfRefs = append(selfRefs, ref)
		} else {
			otherRefs = append(otherRefs, ref)
		}
	}
	if len(selfRefs) > 0 {
		if err := store.InsertMany(depender, selfRefs, selfKind); err != nil {
			return err
		}
	}
	if len(otherRefs) > 0 {
		if err := store.InsertMany(depender, otherRefs, kind); err != nil {
			return err
		}
	}
	return nil
}
