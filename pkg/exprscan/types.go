// Package exprscan implements the ExprScanner component of spec §4.3:
// a walker over an abstract SQL expression tree that discovers the
// catalog objects a syntactic construct references, and two
// recording entrypoints that persist the discovered edges.
//
// The node hierarchy here is a small, purpose-built tagged union —
// modeled on the teacher's Cypher Expression/ASTExpression union
// (pkg/cypher/parser.go's Expression interface with exprMarker(),
// pkg/cypher/ast_builder.go's ASTExpression/ASTExprType) — rather than
// a full SQL AST, since the engine only needs the subset of node
// shapes that can carry catalog identity.
package exprscan

import (
	"errors"

	"github.com/orneryd/catalogdep/pkg/address"
)

// Node is any expression-tree construct the scanner can walk. The
// unexported marker method closes the set of implementers the same
// way the teacher's cypher.Expression / ASTExpression do.
type Node interface {
	exprNode()
}

// RTEKind tags what a RangeTblEntry stands for.
type RTEKind int

const (
	RTERelation RTEKind = iota
	RTEJoin
	RTEFunction
	RTETableFunction
)

// RangeTblEntry is one entry of a query's range table: the scope a
// Var's VarNo indexes into.
type RangeTblEntry struct {
	Kind RTEKind

	// RelID is populated for RTERelation.
	RelID address.ObjectID

	// JoinAliasVars is populated for RTEJoin: one Node per output
	// column of the join, each itself a Var (or nested join alias)
	// resolved at the *outer* scope.
	JoinAliasVars []Node

	// FuncColTypes is populated for RTEFunction/RTETableFunction:
	// the declared type oid of each output column.
	FuncColTypes []address.ObjectID
}

// RangeTable is the list of range-table entries visible at one query
// scope (one "level" in varlevelsup terms).
type RangeTable []*RangeTblEntry

// ScopeStack holds one RangeTable per enclosing query, innermost
// last (outermost at index 0). Scanning a Query node pushes its own range table
// before recursing and pops it on return (spec table, "Query" row).
type ScopeStack []RangeTable

// Var references column attno (1-based) of the range-table entry at
// VarNo (1-based index into the RangeTable varlevelsup levels up).
// AttNo == 0 denotes a whole-row reference, which contributes no
// dependency (spec table).
type Var struct {
	VarLevelsUp int
	VarNo       int
	AttNo       int
}

func (Var) exprNode() {}

// RegKind tags which reg* pseudo-type a non-null Const's value should
// be interpreted as, when ConstType is one of the reg* types. Zero
// value (RegNone) means "an ordinary constant of ConstType".
type RegKind int

const (
	RegNone RegKind = iota
	RegProc
	RegProcedure
	RegOper
	RegOperator
	RegClass
	RegType
)

// Const is a literal value. When non-null and ConstType names one of
// the reg* pseudo-types, Reg and Value identify which referenced
// object the literal denotes (spec table, "Const" row); existence is
// verified via the Scanner's ExistenceChecker before the reference is
// recorded.
type Const struct {
	ConstType address.ObjectID
	IsNull    bool
	Reg       RegKind
	Value     address.ObjectID
}

func (Const) exprNode() {}

// Param is a parameter reference; it contributes a reference to its
// declared type.
type Param struct {
	ParamType address.ObjectID
}

func (Param) exprNode() {}

// FuncExpr is a plain function call.
type FuncExpr struct {
	FuncID address.ObjectID
	Args   []Node
}

func (FuncExpr) exprNode() {}

// OpKind distinguishes the four operator-call node shapes that all
// reference an operator oid and then descend into their arguments.
type OpKind int

const (
	OpPlain OpKind = iota
	OpDistinct
	OpScalarArray
	OpNullIf
)

// OpExpr covers OpExpr, DistinctExpr, ScalarArrayOpExpr, and NullIf
// (spec table groups these together: same reference, same descent).
type OpExpr struct {
	Kind OpKind
	OpNo address.ObjectID
	Args []Node
}

func (OpExpr) exprNode() {}

// AggKind distinguishes an aggregate call from a window function
// reference; both reference a proc oid and descend into arguments.
type AggKind int

const (
	AggAggregate AggKind = iota
	AggWindow
)

// Aggref covers Aggref and WindowRef.
type Aggref struct {
	Kind  AggKind
	FnOid address.ObjectID
	Args  []Node
}

func (Aggref) exprNode() {}

// CoerceKind distinguishes the three coercion node shapes that all
// reference a single result type and a single argument.
type CoerceKind int

const (
	CoerceRelabelType CoerceKind = iota
	CoerceConvertRowtype
	CoerceToDomain
)

// CoerceExpr covers RelabelType, ConvertRowtypeExpr, and
// CoerceToDomain.
type CoerceExpr struct {
	Kind       CoerceKind
	ResultType address.ObjectID
	Arg        Node
}

func (CoerceExpr) exprNode() {}

// RowExpr constructs a composite value of a named row type.
type RowExpr struct {
	RowTypeID address.ObjectID
	Args      []Node
}

func (RowExpr) exprNode() {}

// RowCompareExpr compares two rows element-wise with one operator and
// operator class per element.
type RowCompareExpr struct {
	OpNos     []address.ObjectID
	OpClasses []address.ObjectID
	Args      []Node
}

func (RowCompareExpr) exprNode() {}

// Query is a (sub)query node: its RangeTable is pushed onto the scope
// stack while Targets (and any nested subqueries within them) are
// scanned, then popped.
type Query struct {
	RangeTable RangeTable
	Targets    []Node
}

func (Query) exprNode() {}

// SubPlan stands for an already-planned subplan reached during
// scanning. The scanner always fails on it: by the time a subplan
// exists the query has left the expression-tree stage the scanner
// understands (spec table, last row).
type SubPlan struct{}

func (SubPlan) exprNode() {}

// Scanner errors (spec §7.7-7.8).
var (
	ErrInvalidVarLevel = errors.New("exprscan: varlevelsup out of range")
	ErrInvalidVarNo    = errors.New("exprscan: varno out of range")
	ErrInvalidAttrNo   = errors.New("exprscan: attno out of range")
	ErrUnsupported     = errors.New("exprscan: unsupported node (planned subplan)")
)
