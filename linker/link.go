// Package linker resolves one assembly's dispatch table and type lookup
// table against a Context of host functions, other loaded assemblies,
// and the live Type Registry (spec.md §4.5).
package linker

import (
	"github.com/mun-lang/mun-runtime/assembly"
)

// Link resolves every entry of m's dispatch table and type lookup table
// against ctx. Resolution is a pure function of m's ABI and ctx — Link
// keeps no state of its own between calls, so re-running it on an
// already-linked assembly (nothing in ctx changed) re-derives identical
// slot values.
//
// On any unresolved entry, Link returns a *LinkError listing every
// failure found (not just the first) and writes nothing: m's tables are
// only replaced once resolution has fully succeeded, matching spec.md
// §4.5's "do not publish the assembly" on failure.
func Link(m *assembly.Manager, ctx *Context) error {
	info := m.Info()

	var errs LinkError

	dispatch := make([]assembly.DispatchSlot, len(info.Dispatch))
	for i, d := range info.Dispatch {
		matches := ctx.resolveFunction(d.Prototype.Name)
		switch {
		case len(matches) == 0:
			errs.add(MissingFunction, d.Prototype.Name)
		case len(matches) > 1:
			errs.add(DuplicateFunction, d.Prototype.Name)
		case !matches[0].Prototype.Equal(d.Prototype):
			errs.add(SignatureMismatch, d.Prototype.Name)
		default:
			dispatch[i] = assembly.DispatchSlot{Prototype: d.Prototype, Fn: matches[0].Impl}
		}
	}

	typeLUT := make([]assembly.TypeSlot, len(info.TypeLUT))
	for i, e := range info.TypeLUT {
		t, ok := ctx.Types.FindByID(e.TypeID)
		if !ok {
			errs.add(MissingType, e.DebugName)
			continue
		}
		typeLUT[i] = assembly.TypeSlot{TypeID: e.TypeID, Type: t}
	}

	if len(errs.Entries) > 0 {
		return &errs
	}

	m.SetDispatch(dispatch)
	m.SetTypeLUT(typeLUT)
	return nil
}
