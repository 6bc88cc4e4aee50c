package dropengine

import (
	"fmt"

	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/edgestore"
)

// recursiveDeletion implements spec §4.6's state machine. caller is
// nil for "the user is dropping this object directly"; a non-nil
// caller names the object whose own recursiveDeletion call reached
// here (either stepping into an owner via INTERNAL redirection, or
// stepping into an incoming dependent from deleteDependentObjects).
//
// It returns ok=false (never an error) for an ordinary RESTRICT
// violation, so that every violation reachable from one top-level call
// is discovered in a single pass before any error is raised (spec §7).
func (e *Engine) recursiveDeletion(obj address.ObjectAddress, behavior DropBehavior, msglevel Severity, caller *address.ObjectAddress, st *dropState) (bool, error) {
	if st.alreadyDeleted.Present(obj) {
		// Already destroyed earlier in this same traversal (reachable
		// again through a second edge to the same dependent, e.g. two
		// distinct-kind rows between the same pair): step 3 must never
		// run twice for one object.
		return true, nil
	}

	edges, err := e.Store.ScanOutgoingForDelete(obj)
	if err != nil {
		return false, err
	}

	var amOwned bool
	var owningObject address.ObjectAddress
	var sawInternal bool

	// Step 1: sever outgoing edges, materialized into a snapshot before
	// any Delete call (design note 9.a) so deleting a yielded row never
	// invalidates the rest of the scan.
	for _, edge := range edges {
		switch edge.Kind {
		case edgestore.Normal, edgestore.Auto:
			if err := e.Store.Delete(edge); err != nil {
				return false, err
			}
			st.recordStat(func(s *Stats) { s.EdgesSevered++ })

		case edgestore.Internal:
			if sawInternal {
				return false, fmt.Errorf("%w: %s", ErrMultipleInternal, e.describeOrFallback(obj))
			}
			sawInternal = true

			switch {
			case caller == nil:
				// The user is trying to drop an implementation detail
				// directly: redirect them to the owner instead. Do not
				// continue scanning (spec: "Do not continue scanning").
				owner := e.describeOrFallback(edge.Referenced)
				return false, fmt.Errorf("%w: cannot drop %s because %s requires it\nHINT: you may drop %s instead",
					ErrDependentObjectsStillExist, e.describeOrFallback(obj), owner, owner)

			case *caller == edge.Referenced || caller.Subsumes(edge.Referenced):
				// Re-entry from the outer drop of the owner: the edge
				// has served its purpose, delete it.
				if err := e.Store.Delete(edge); err != nil {
					return false, err
				}
				st.recordStat(func(s *Stats) { s.EdgesSevered++ })

			default:
				// Record the owner and leave the edge row in place: it
				// must survive to let the owner's drop recurse back here.
				amOwned = true
				owningObject = edge.Referenced
			}

		case edgestore.Pin:
			return false, fmt.Errorf("%w: found as outgoing edge of %s (corruption)", ErrIncorrectPinUse, e.describeOrFallback(obj))

		default:
			return false, fmt.Errorf("%w: %q", ErrUnrecognizedDependencyType, edge.Kind)
		}
	}

	// Visibility barrier: subsequent scans (including the owner's own
	// Step 1, and any deeper recursion below) must observe every
	// deletion above. This is what makes traversal terminate on cyclic
	// graphs (spec §5).
	if err := e.Store.Publish(); err != nil {
		return false, err
	}

	// Step 1½: ownership redirection.
	if amOwned {
		ok := true
		switch {
		case st.oktodelete.Present(owningObject):
			e.logf(SeverityDebug2, "drop auto-cascades to %s", e.describeOrFallback(owningObject))
		case behavior == Restrict:
			msg := fmt.Sprintf("%s depends on %s", e.describeOrFallback(owningObject), e.describeOrFallback(obj))
			e.logf(msglevel, "%s", msg)
			st.violations = append(st.violations, msg)
			st.recordStat(func(s *Stats) { s.ViolationsReported++ })
			ok = false
		default:
			e.logf(msglevel, "drop cascades to %s", e.describeOrFallback(owningObject))
		}

		innerOK, err := e.recursiveDeletion(owningObject, behavior, msglevel, &obj, st)
		if err != nil {
			return false, err
		}
		return ok && innerOK, nil
	}

	// Step 2: drop dependents.
	ok, err := e.deleteDependentObjects(obj, behavior, msglevel, st)
	if err != nil {
		return false, err
	}

	// Step 3: destroy the object itself.
	if err := e.Registry.DispatchDrop(obj); err != nil {
		return false, err
	}
	st.recordStat(func(s *Stats) { s.ObjectsDeleted++ })
	if st.alreadyDeleted != nil && !st.alreadyDeleted.Present(obj) {
		st.alreadyDeleted.AppendExact(obj)
	}
	if e.OnDropComments != nil {
		e.OnDropComments(obj)
	}
	if obj.SubID == 0 && e.OnDropSharedDependencies != nil {
		e.OnDropSharedDependencies(obj.ClassID, obj.ObjectID)
	}
	if err := e.Store.Publish(); err != nil {
		return false, err
	}

	return ok, nil
}

// deleteDependentObjects implements spec §4.6's step 2: scan incoming
// edges and recurse into every dependent, regardless of RESTRICT
// violations along the way, so that a single pass discovers every
// violation reachable from obj.
func (e *Engine) deleteDependentObjects(obj address.ObjectAddress, behavior DropBehavior, msglevel Severity, st *dropState) (bool, error) {
	edges, err := e.Store.ScanIncomingForDelete(obj)
	if err != nil {
		return false, err
	}

	ok := true
	for _, edge := range edges {
		other := edge.Dependent

		switch edge.Kind {
		case edgestore.Normal:
			switch {
			case st.oktodelete.Present(other):
				e.logf(SeverityDebug2, "drop auto-cascades to %s", e.describeOrFallback(other))
			case behavior == Restrict:
				msg := fmt.Sprintf("%s depends on %s", e.describeOrFallback(other), e.describeOrFallback(obj))
				e.logf(msglevel, "%s", msg)
				st.violations = append(st.violations, msg)
				st.recordStat(func(s *Stats) { s.ViolationsReported++ })
				ok = false
			default:
				e.logf(msglevel, "drop cascades to %s", e.describeOrFallback(other))
			}

		case edgestore.Auto, edgestore.Internal:
			e.logf(SeverityDebug2, "drop auto-cascades to %s", e.describeOrFallback(other))

		case edgestore.Pin:
			return false, fmt.Errorf("%w: %s is required by the database system", ErrDependentObjectsStillExist, e.describeOrFallback(obj))

		default:
			return false, fmt.Errorf("%w: %q", ErrUnrecognizedDependencyType, edge.Kind)
		}

		childOK, err := e.recursiveDeletion(other, behavior, msglevel, &obj, st)
		if err != nil {
			return false, err
		}
		ok = ok && childOK
	}

	return ok, nil
}

// findAutoDeletable implements spec §4.6's pre-scan: the in-memory
// visited-set closure of everything reachable via AUTO/INTERNAL
// incoming edges, computed in a fully separate pass before any
// mutation so that RESTRICT's eventual report is independent of the
// order incoming edges happen to be visited in (spec §9, "oktodelete
// as order-independence oracle").
func (e *Engine) findAutoDeletable(obj address.ObjectAddress, s *address.Set, addself bool) error {
	if s.Present(obj) {
		return nil
	}
	if addself {
		s.AppendExact(obj)
	}

	edges, err := e.Store.ScanIncoming(obj)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		switch edge.Kind {
		case edgestore.Normal:
			// NORMAL edges never auto-cascade; ignored here.
		case edgestore.Auto, edgestore.Internal:
			if err := e.findAutoDeletable(edge.Dependent, s, true); err != nil {
				return err
			}
		case edgestore.Pin:
			return fmt.Errorf("%w: %s is required by the database system", ErrDependentObjectsStillExist, e.describeOrFallback(obj))
		default:
			return fmt.Errorf("%w: %q", ErrUnrecognizedDependencyType, edge.Kind)
		}
	}
	return nil
}
