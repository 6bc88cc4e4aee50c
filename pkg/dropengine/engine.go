package dropengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/orneryd/catalogdep/pkg/address"
	"github.com/orneryd/catalogdep/pkg/classregistry"
	"github.com/orneryd/catalogdep/pkg/descriptor"
	"github.com/orneryd/catalogdep/pkg/edgestore"
)

// dropCascadeHint is appended to every DependentObjectsStillExist error
// raised from a RESTRICT violation, mirroring the concrete scenario in
// spec §8.1.
const dropCascadeHint = "HINT: Use DROP ... CASCADE to drop the dependent objects too."

// Engine is the recursive deletion state machine (spec §4.6). The zero
// value is not usable; build one with New.
type Engine struct {
	Store    edgestore.Store
	Registry *classregistry.Registry
	Resolver descriptor.NameResolver
	Logger   Logger

	// DowngradeNotice, when true, downgrades every Notice-level message
	// to Debug1 before it reaches Logger, matching the embedding
	// environment's distributed-execution role flag (spec §6).
	DowngradeNotice bool

	// Stats, if non-nil, is updated in place by every deletion call.
	Stats *Stats

	// OnDropComments and OnDropSharedDependencies are optional hooks invoked as step 3 of recursiveDeletion finishes
	// (spec §4.6 step 3): comment and shared-dependency-record cleanup
	// are external catalog collaborators this engine only drives, never
	// owns (spec §1 Out of scope).
	OnDropComments           func(address.ObjectAddress)
	OnDropSharedDependencies func(class address.ObjectClass, id address.ObjectID)
}

// New builds an Engine from its required collaborators. Logger defaults
// to NopLogger if nil.
func New(store edgestore.Store, registry *classregistry.Registry, resolver descriptor.NameResolver) *Engine {
	return &Engine{
		Store:    store,
		Registry: registry,
		Resolver: resolver,
		Logger:   NopLogger,
	}
}

func (e *Engine) logf(sev Severity, format string, args ...any) {
	if sev == SeverityNotice && e.DowngradeNotice {
		sev = SeverityDebug1
	}
	logger := e.Logger
	if logger == nil {
		logger = NopLogger
	}
	logger.Log(sev, fmt.Sprintf(format, args...))
}

// describeOrFallback renders a human-readable description of a,
// falling back to its raw triple when Resolver is nil or the lookup
// fails (a cache-lookup failure must never block a diagnostic message
// from being produced).
func (e *Engine) describeOrFallback(a address.ObjectAddress) string {
	if e.Resolver == nil {
		return a.String()
	}
	desc, err := descriptor.Describe(a, e.Resolver)
	if err != nil {
		return a.String()
	}
	return desc
}

// GetObjectClass reports the ObjectClass of addr (embedding API, spec
// §6).
func (e *Engine) GetObjectClass(addr address.ObjectAddress) (address.ObjectClass, error) {
	return e.Registry.GetObjectClass(addr)
}

// GetObjectDescription renders addr's diagnostic description
// (embedding API, spec §6).
func (e *Engine) GetObjectDescription(addr address.ObjectAddress) (string, error) {
	return descriptor.Describe(addr, e.Resolver)
}

// RecordDependencyOn is the thin edge writer of the embedding API
// (spec §6): it records kind-typed edges from depender to each of
// referenced without any expression-tree discovery.
func (e *Engine) RecordDependencyOn(depender address.ObjectAddress, referenced []address.ObjectAddress, kind edgestore.DependencyType) error {
	return e.Store.InsertMany(depender, referenced, kind)
}

// PerformDeletion drops a single target under behavior (spec §4.6).
func (e *Engine) PerformDeletion(target address.ObjectAddress, behavior DropBehavior) error {
	st := &dropState{
		oktodelete:     address.NewSet(),
		alreadyDeleted: address.NewSet(),
		stats:          e.Stats,
	}
	if err := e.findAutoDeletable(target, st.oktodelete, true); err != nil {
		return err
	}
	ok, err := e.recursiveDeletion(target, behavior, SeverityNotice, nil, st)
	if err != nil {
		return err
	}
	if !ok {
		return e.violationError(
			fmt.Sprintf("cannot drop %s because other objects depend on it", e.describeOrFallback(target)),
			st.violations,
		)
	}
	return nil
}

// PerformMultipleDeletions drops every target under one shared behavior
// (spec §4.6). The key property: an AUTO/INTERNAL dependent of one
// target that is itself also a direct target is never dropped twice,
// because both the pre-scan and the drop loop consult the same
// implicit/alreadyDeleted sets across all targets.
func (e *Engine) PerformMultipleDeletions(targets []address.ObjectAddress, behavior DropBehavior) error {
	implicit := address.NewSet()
	for _, t := range targets {
		if implicit.Present(t) {
			continue
		}
		if err := e.findAutoDeletable(t, implicit, false); err != nil {
			return err
		}
	}

	st := &dropState{
		oktodelete:     implicit,
		alreadyDeleted: address.NewSet(),
		stats:          e.Stats,
	}

	var failed []address.ObjectAddress
	for _, t := range targets {
		if st.alreadyDeleted.Present(t) || implicit.Present(t) {
			continue
		}
		ok, err := e.recursiveDeletion(t, behavior, SeverityNotice, nil, st)
		if err != nil {
			return err
		}
		if !ok {
			failed = append(failed, t)
		}
	}

	if len(failed) > 0 {
		descs := make([]string, len(failed))
		for i, t := range failed {
			descs[i] = e.describeOrFallback(t)
		}
		return e.violationError(
			fmt.Sprintf("cannot drop desired object(s) because other objects depend on them (%s)", strings.Join(descs, ", ")),
			st.violations,
		)
	}
	return nil
}

// DeleteWhatDependsOn drops everything reachable from target without
// dropping target itself (spec §4.6). It computes oktodelete
// including target so that a self-referencing edge back to target is
// silently tolerated rather than reported as a violation, then runs
// only step 2 (deleteDependentObjects) of the state machine.
func (e *Engine) DeleteWhatDependsOn(target address.ObjectAddress, showNotices bool) error {
	st := &dropState{
		oktodelete:     address.NewSet(),
		alreadyDeleted: address.NewSet(),
		stats:          e.Stats,
	}
	if err := e.findAutoDeletable(target, st.oktodelete, true); err != nil {
		return err
	}

	msglevel := SeverityDebug1
	if showNotices {
		msglevel = SeverityNotice
	}

	ok, err := e.deleteDependentObjects(target, Cascade, msglevel, st)
	if err != nil {
		return err
	}
	if !ok {
		return e.violationError(
			fmt.Sprintf("cannot drop objects depending on %s", e.describeOrFallback(target)),
			st.violations,
		)
	}
	return nil
}

// violationError wraps msg and every accumulated RESTRICT violation
// into one ErrDependentObjectsStillExist, so a single caller-visible
// error reports every direct and indirect violation found in the same
// pass (spec §7 propagation rule), using go-multierror the way
// opentofu's remote-state clients accumulate per-resource errors
// (internal/backend/remote-state/{gcs,s3,cos}/client.go).
func (e *Engine) violationError(msg string, violations []string) error {
	merr := &multierror.Error{}
	merr = multierror.Append(merr, fmt.Errorf("%w: %s\n%s", ErrDependentObjectsStillExist, msg, dropCascadeHint))
	for _, v := range violations {
		merr = multierror.Append(merr, errors.New(v))
	}
	return merr.ErrorOrNil()
}
