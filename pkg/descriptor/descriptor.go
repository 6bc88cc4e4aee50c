// Package descriptor implements the Descriptor component of spec
// §4.4: rendering a human-readable diagnostic phrase for an
// ObjectAddress, such as "relation public.foo" or "column c of
// relation foo". Relations are always called "relation", whatever
// their kind: tables, views and indexes are not told apart. Classes
// other than relation, proc, type, operator and operator class are
// rendered as "<class> <name>" from GenericName.
//
// Descriptor performs no mutation; it only reads through a
// caller-supplied NameResolver, mirroring the teacher's read-only
// catalog introspection helpers (e.g. richcatalog's Schema/Table
// lookups in the retrieval pack's other_examples).
package descriptor

import (
	"errors"
	"fmt"

	"github.com/orneryd/catalogdep/pkg/address"
)

// ErrCacheLookupFailed is returned when the resolver cannot find the
// object a description was requested for (spec §7.6).
var ErrCacheLookupFailed = errors.New("descriptor: cache lookup failed")

// NameResolver supplies the catalog lookups Describe needs. All
// methods report ok=false when the id is unknown; Describe then
// returns ErrCacheLookupFailed.
type NameResolver interface {
	// RelationName returns the schema name and the bare name of a
	// relation, and whether it is visible in the active search path
	// without schema-qualification.
	RelationName(id address.ObjectID) (schema, name string, visible bool, ok bool)
	ColumnName(relID address.ObjectID, attNo address.SubID) (string, bool)
	ProcName(id address.ObjectID) (string, bool)
	TypeName(id address.ObjectID) (string, bool)
	OperatorName(id address.ObjectID) (string, bool)
	// OpClassName returns the opclass name and the access method it
	// belongs to.
	OpClassName(id address.ObjectID) (name, amName string, ok bool)
	GenericName(class address.ObjectClass, id address.ObjectID) (string, bool)
}

// Describe renders a, using resolver for any names it needs. It never
// mutates catalog state.
func Describe(a address.ObjectAddress, resolver NameResolver) (string, error) {
	if a.SubID != 0 && a.ClassID == address.ClassRelation {
		return describeColumn(a, resolver)
	}

	switch a.ClassID {
	case address.ClassRelation:
		schema, name, visible, ok := resolver.RelationName(a.ObjectID)
		if !ok {
			return "", fmt.Errorf("%w: relation %d", ErrCacheLookupFailed, a.ObjectID)
		}
		if visible {
			return fmt.Sprintf("relation %s", name), nil
		}
		return fmt.Sprintf("relation %s.%s", schema, name), nil

	case address.ClassProc:
		name, ok := resolver.ProcName(a.ObjectID)
		if !ok {
			return "", fmt.Errorf("%w: function %d", ErrCacheLookupFailed, a.ObjectID)
		}
		return fmt.Sprintf("function %s", name), nil

	case address.ClassType:
		name, ok := resolver.TypeName(a.ObjectID)
		if !ok {
			return "", fmt.Errorf("%w: type %d", ErrCacheLookupFailed, a.ObjectID)
		}
		return fmt.Sprintf("type %s", name), nil

	case address.ClassOperator:
		name, ok := resolver.OperatorName(a.ObjectID)
		if !ok {
			return "", fmt.Errorf("%w: operator %d", ErrCacheLookupFailed, a.ObjectID)
		}
		return fmt.Sprintf("operator %s", name), nil

	case address.ClassOpClass:
		name, amName, ok := resolver.OpClassName(a.ObjectID)
		if !ok {
			return "", fmt.Errorf("%w: operator class %d", ErrCacheLookupFailed, a.ObjectID)
		}
		return fmt.Sprintf("operator class %s for access method %s", name, amName), nil

	default:
		name, ok := resolver.GenericName(a.ClassID, a.ObjectID)
		if !ok {
			return "", fmt.Errorf("%w: %s %d", ErrCacheLookupFailed, a.ClassID, a.ObjectID)
		}
		return fmt.Sprintf("%s %s", a.ClassID, name), nil
	}
}

func describeColumn(a address.ObjectAddress, resolver NameResolver) (string, error) {
	colName, ok := resolver.ColumnName(a.ObjectID, a.SubID)
	if !ok {
		return "", fmt.Errorf("%w: column %d of relation %d", ErrCacheLookupFailed, a.SubID, a.ObjectID)
	}
	schema, relName, visible, ok := resolver.RelationName(a.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: relation %d", ErrCacheLookupFailed, a.ObjectID)
	}
	if visible {
		return fmt.Sprintf("column %s of relation %s", colName, relName), nil
	}
	return fmt.Sprintf("column %s of relation %s.%s", colName, schema, relName), nil
}
