package runtime

import (
	"fmt"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/assembly"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// resolvedTypes is the outcome of resolving every struct definition
// across a set of loaded assemblies into one Registry: the registry
// itself, a Guid-keyed index into it (so the orchestrator can diff two
// generations of the same Guid across a reload without the Registry
// exposing an enumeration API of its own), and which assembly path each
// Guid came from (so a superseded assembly's types can be found again at
// unload time).
type resolvedTypes struct {
	registry *typeregistry.Registry
	byGuid   map[abi.Guid]*typeregistry.Type
	owner    map[abi.Guid]string
}

// resolveTypes interns every struct type declared across managers into a
// fresh Registry (spec.md §4.2). Struct definitions may reference each
// other cyclically through Gc-kind (reference) fields — FieldSizeAlign
// gives those a fixed pointer-sized contribution regardless of the
// pointee's own layout — so this runs in two passes: first every struct
// gets an interned stub (Registry.DeclareStruct), in Guid-declaration
// order; then each stub's fields are resolved against the now-stable
// stub pointers and its layout is finished (Registry.FinishStruct). Only
// a Value-kind field's target needs to be fully finished before use (its
// real size matters for layout); a Gc-kind field just needs the stub's
// identity, so that recursion is the only one that needs a cycle guard —
// and a genuine cycle through Value-kind fields is an impossible size,
// so encountering one here means the ABI blob is malformed.
func resolveTypes(managers map[string]*assembly.Manager) (*resolvedTypes, error) {
	reg := typeregistry.New()

	defs := make(map[abi.Guid]abi.StructDefinition)
	owner := make(map[abi.Guid]string)
	for path, m := range managers {
		for _, sd := range m.Info().Module.Types {
			defs[sd.Guid] = sd
			owner[sd.Guid] = path
		}
	}

	stubs := make(map[abi.Guid]*typeregistry.Type, len(defs))
	for guid, sd := range defs {
		stubs[guid] = reg.DeclareStruct(guid, sd.Name, sd.MemoryKind)
	}

	finished := make(map[abi.Guid]bool, len(defs))
	resolving := make(map[abi.Guid]bool, len(defs))

	var finish func(guid abi.Guid) error
	finish = func(guid abi.Guid) error {
		if finished[guid] {
			return nil
		}
		sd, ok := defs[guid]
		if !ok {
			return nil
		}
		if resolving[guid] {
			return fmt.Errorf("runtime: cyclic value-kind struct chain through %s", sd.Name)
		}
		resolving[guid] = true
		defer delete(resolving, guid)

		fieldNames := make([]string, len(sd.Fields))
		fieldTypes := make([]*typeregistry.Type, len(sd.Fields))
		for i, f := range sd.Fields {
			t, err := resolveFieldType(reg, stubs, finish, f.Type)
			if err != nil {
				return err
			}
			fieldNames[i] = f.Name
			fieldTypes[i] = t
		}
		if err := reg.FinishStruct(stubs[guid], fieldNames, fieldTypes); err != nil {
			return err
		}
		finished[guid] = true
		return nil
	}

	for guid := range defs {
		if err := finish(guid); err != nil {
			return nil, err
		}
	}

	return &resolvedTypes{registry: reg, byGuid: stubs, owner: owner}, nil
}

// resolveFieldType resolves one field's abi.TypeID to a *typeregistry.Type
// against the stub map built by resolveTypes, finishing a Value-kind
// struct dependency first (its size must be known) but leaving a Gc-kind
// struct dependency to be finished later by the outer loop (its
// contribution to this field's layout is fixed, see FieldSizeAlign).
func resolveFieldType(reg *typeregistry.Registry, stubs map[abi.Guid]*typeregistry.Type,
	finish func(abi.Guid) error, id abi.TypeID) (*typeregistry.Type, error) {

	switch id.Kind {
	case abi.KindConcrete:
		if kind, ok := typeregistry.PrimitiveKindForGuid(id.Concrete); ok {
			return reg.InternPrimitive(kind), nil
		}
		t, ok := stubs[id.Concrete]
		if !ok {
			return nil, fmt.Errorf("%w: guid %s", errUnknownType, id.Concrete)
		}
		if t.Struct.MemoryKind != abi.Gc {
			if err := finish(id.Concrete); err != nil {
				return nil, err
			}
		}
		return t, nil

	case abi.KindPointer:
		pointee, err := resolveFieldType(reg, stubs, finish, *id.Pointee)
		if err != nil {
			return nil, err
		}
		return reg.InternPointer(pointee, id.Mutable), nil

	case abi.KindArray:
		elem, err := resolveFieldType(reg, stubs, finish, *id.Element)
		if err != nil {
			return nil, err
		}
		return reg.InternArray(elem), nil

	default:
		return nil, fmt.Errorf("runtime: unknown TypeId kind %d", id.Kind)
	}
}

// warmTypeLUT interns every type named by a type-lookup-table entry
// across managers into rt's registry. linker.Link resolves a type-LUT
// slot via Registry.FindByID alone, which never synthesizes a primitive,
// pointer, or array Type on demand the way InternPrimitive/InternPointer/
// InternArray do — so a TypeId built from those kinds has to be interned
// once, here, before linking, or a legitimately resolvable slot would
// wrongly fail as MissingType. A TypeId that names a struct nothing
// loaded declares is left alone; Link reports that one as MissingType,
// which is the correct outcome.
func warmTypeLUT(rt *resolvedTypes, managers map[string]*assembly.Manager) {
	for _, m := range managers {
		for _, e := range m.Info().TypeLUT {
			resolveTypeID(rt, e.TypeID)
		}
	}
}

// resolveTypeID resolves a top-level abi.TypeID (a dispatch-table
// prototype's argument/return type, or a type-LUT entry) against an
// already fully-resolved Registry — unlike resolveFieldType, every
// struct it might name is finished already, so no recursive finish call
// is needed.
func resolveTypeID(rt *resolvedTypes, id abi.TypeID) (*typeregistry.Type, bool) {
	switch id.Kind {
	case abi.KindConcrete:
		if kind, ok := typeregistry.PrimitiveKindForGuid(id.Concrete); ok {
			return rt.registry.InternPrimitive(kind), true
		}
		t, ok := rt.byGuid[id.Concrete]
		return t, ok
	case abi.KindPointer:
		pointee, ok := resolveTypeID(rt, *id.Pointee)
		if !ok {
			return nil, false
		}
		return rt.registry.InternPointer(pointee, id.Mutable), true
	case abi.KindArray:
		elem, ok := resolveTypeID(rt, *id.Element)
		if !ok {
			return nil, false
		}
		return rt.registry.InternArray(elem), true
	default:
		return nil, false
	}
}
