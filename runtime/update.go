package runtime

import (
	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/assembly"
	"github.com/mun-lang/mun-runtime/linker"
	"github.com/mun-lang/mun-runtime/mapper"
)

// pendingUnmapEntry is a superseded Manager still waiting on the
// type-liveness half of spec.md §4.6's unmap gate: no assembly's
// dispatch table binds to one of its exports any more (guaranteed
// structurally, see the comment on step 5 below), but one or more of its
// struct types still has live objects, so its Release is deferred and
// its reference count has not yet been decremented.
type pendingUnmapEntry struct {
	mgr        *assembly.Manager
	guids      []abi.Guid
	generation *resolvedTypes
}

// Update drains pending reload events and runs spec.md §4.7's seven-step
// reload protocol, returning whether anything actually reloaded. Between
// being called and returning, the runtime is quiesced (spec.md §5): the
// host must not be executing generated code, which in practice this
// satisfies simply by being called from the host's main loop between
// frames, the same as the original contract.
//
// A failure at any step logs and aborts the *entire* call atomically —
// every assembly stays on its previous version, nothing is partially
// swapped in (spec.md §5's ordering guarantee, and §5's cancellation
// note explicitly groups step 2's per-file load failures with steps 4
// and 5's validation failures as whole-reload aborts).
func (rt *Runtime) Update() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.sweepPendingUnmap()

	// Step 1: drain pending reload paths from the watcher.
	paths := rt.watcher.Drain()
	if len(paths) == 0 {
		return false
	}

	// Step 2: stage each changed path into a fresh Manager. Any failure,
	// including an ABI-version mismatch, aborts the whole call.
	staged := make(map[string]*assembly.Manager)
	for _, p := range paths {
		if _, ok := rt.assemblies[p]; !ok {
			continue // not one of our loaded files
		}
		m, err := assembly.Load(p)
		if err != nil {
			rt.logger.WithField("path", p).Warnf("reload: staging failed, aborting update: %v", err)
			return false
		}
		staged[p] = m
	}
	if len(staged) == 0 {
		return false
	}

	// Step 3: build a candidate manager set (current, with each changed
	// path's Manager superseded) and resolve a candidate Registry from it
	// — "like the current registry but with each changed assembly's type
	// definitions superseded".
	candidateManagers := make(map[string]*assembly.Manager, len(rt.assemblies))
	for p, m := range rt.assemblies {
		candidateManagers[p] = m
	}
	for p, m := range staged {
		candidateManagers[p] = m
	}

	candidate, err := resolveTypes(candidateManagers)
	if err != nil {
		rt.logger.Warnf("reload: type resolution failed, aborting update: %v", err)
		return false
	}
	warmTypeLUT(candidate, candidateManagers)

	// Step 4: compute a Mapping for every struct Guid that exists in both
	// the old and candidate registries. Plan itself short-circuits to a
	// trivial identity Mapping when a type's fingerprint didn't change
	// (mapper/fingerprint.go), so this both covers real schema changes
	// and — deliberately — re-points every live object of an *unchanged*
	// Guid at the candidate registry's freshly-interned Type for it:
	// resolveTypes builds a brand new Registry each reload, so even a
	// byte-for-byte-identical struct gets a new *Type pointer, and
	// skipping the rebind here would leave old objects referencing a
	// pointer no live allocation or future lookup would ever produce
	// again, which breaks spec.md Invariant 1's "at most one live Type"
	// promise across a reload. An unrepresentable Mapping aborts the
	// reload.
	previous := rt.types
	var mappings []*mapper.Mapping
	for guid, newType := range candidate.byGuid {
		oldType, ok := previous.byGuid[guid]
		if !ok {
			continue
		}
		m, err := mapper.Plan(oldType, newType)
		if err != nil {
			rt.logger.WithField("type", newType.Name).Warnf("reload: unrepresentable mapping, aborting update: %v", err)
			return false
		}
		mappings = append(mappings, m)
	}

	// Step 5: re-link every loaded assembly against the candidate set.
	// This is also what makes the dispatch-table half of the unmap gate
	// (spec.md §4.6) hold automatically: every assembly's dispatch table
	// is rebuilt from scratch here, changed or not, so after a successful
	// commit no live dispatch slot anywhere still points at a superseded
	// Manager's exports — there is nothing left to refcount for that
	// half of the gate.
	ctx := &linker.Context{
		Host:       rt.hostFunctions(),
		Assemblies: managerList(candidateManagers),
		Types:      candidate.registry,
	}
	// A link failure restores the tables of every Manager linked before
	// it, so no loaded assembly stays bound to the candidate set.
	type linkedTables struct {
		dispatch []assembly.DispatchSlot
		typeLUT  []assembly.TypeSlot
	}
	saved := make(map[*assembly.Manager]linkedTables, len(candidateManagers))
	for p, m := range candidateManagers {
		saved[m] = linkedTables{dispatch: m.Dispatch(), typeLUT: m.TypeLUT()}
		if err := linker.Link(m, ctx); err != nil {
			for sm, s := range saved {
				sm.SetDispatch(s.dispatch)
				sm.SetTypeLUT(s.typeLUT)
			}
			rt.logger.WithField("path", p).Warnf("reload: link failed, aborting update: %v", err)
			return false
		}
	}

	// Step 6: commit. Install the candidate registry, migrate every live
	// object of every changed type, then swap in each changed assembly's
	// manager. The dispatch-table and type-lookup-table writes performed
	// in step 5 are already sitting on these same Manager values, so
	// nothing further needs writing here to "publish" them.
	for _, m := range mappings {
		if err := mapper.Apply(rt.heap, m); err != nil {
			// Apply only fails on a gc-level bug (not a shape problem —
			// step 4 already validated that); there is no well-defined
			// rollback for a heap already partially migrated, so this
			// is logged as the invariant violation it is and the commit
			// proceeds with whatever objects already got remapped.
			rt.logger.WithField("type", m.New.Name).Errorf("reload: apply failed mid-commit: %v", err)
		}
	}

	rt.types = candidate
	for p, m := range staged {
		old := rt.assemblies[p]
		rt.assemblies[p] = m
		m.Retain()
		rt.supersede(old, p, previous)
	}

	// Step 7: unmap superseded shared libraries whose code is no longer
	// reachable — handled by supersede/sweepPendingUnmap's type-liveness
	// gate rather than an unconditional unmap here.
	rt.sweepPendingUnmap()

	return true
}

func (rt *Runtime) hostFunctions() []abi.FunctionDef {
	return rt.opts.ExternalFunctions
}

// supersede releases old's "currently loaded" reference. generation is
// the registry that was live immediately before this reload committed —
// the one whose byGuid/owner maps actually describe what old's assembly
// contributed, since rt.types has already moved on to the candidate
// registry by the time supersede runs. If any of the struct types old's
// assembly declared still has live objects referencing generation's Type
// pointers, the release is deferred to sweepPendingUnmap instead of
// unmapping immediately out from under those objects.
func (rt *Runtime) supersede(old *assembly.Manager, path string, generation *resolvedTypes) {
	var guids []abi.Guid
	for guid, owner := range generation.owner {
		if owner == path {
			guids = append(guids, guid)
		}
	}
	if rt.anyTypeStillLive(guids, generation) {
		rt.pendingUnmap = append(rt.pendingUnmap, pendingUnmapEntry{mgr: old, guids: guids, generation: generation})
		return
	}
	if err := old.Release(); err != nil {
		rt.logger.Warnf("reload: unmap failed: %v", err)
	}
}

// anyTypeStillLive reports whether any live heap object's type is one of
// guids — checked by identity against generation's Type pointers, which
// is exactly what a not-yet-migrated (or leaked) object would still
// reference. Every Guid shared with a later generation was already
// remapped onto that generation's Type by step 4's unconditional Plan+
// Apply pass, so in the ordinary case this only ever finds objects whose
// Guid genuinely disappeared from the candidate set.
func (rt *Runtime) anyTypeStillLive(guids []abi.Guid, generation *resolvedTypes) bool {
	for _, guid := range guids {
		t, ok := generation.byGuid[guid]
		if !ok {
			continue
		}
		if len(rt.heap.ObjectsOfType(t)) > 0 {
			return true
		}
	}
	return false
}

// sweepPendingUnmap re-checks every Manager waiting on the type-liveness
// gate and releases those that have become clear (spec.md §9: "a
// defensive implementation keeps superseded libraries loaded until the
// next collect() confirms no live handle ... references them").
func (rt *Runtime) sweepPendingUnmap() {
	kept := rt.pendingUnmap[:0]
	for _, e := range rt.pendingUnmap {
		if rt.anyTypeStillLive(e.guids, e.generation) {
			kept = append(kept, e)
			continue
		}
		if err := e.mgr.Release(); err != nil {
			rt.logger.Warnf("reload: deferred unmap failed: %v", err)
		}
	}
	rt.pendingUnmap = kept
}
