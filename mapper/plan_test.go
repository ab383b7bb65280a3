package mapper

import (
	"testing"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

func mustStruct(t *testing.T, r *typeregistry.Registry, guid abi.Guid, name string, kind abi.MemoryKind, fields []string, types []*typeregistry.Type) *typeregistry.Type {
	t.Helper()
	typ, err := r.InternStruct(guid, name, kind, fields, types)
	if err != nil {
		t.Fatalf("InternStruct(%s): %v", name, err)
	}
	return typ
}

func actionNames(m *Mapping) []string {
	out := make([]string, len(m.Actions))
	for i, a := range m.Actions {
		switch a.Kind {
		case ActionZero:
			out[i] = "zero"
		case ActionMove:
			out[i] = "move"
		case ActionConvertPrimitive:
			out[i] = "convert"
		case ActionConvertEmbedded:
			out[i] = "embed"
		}
	}
	return out
}

func TestPlanAddField(t *testing.T) {
	// Registries are per-version here (a real reload interns old and new
	// shapes in distinct registries too, since the whole point is that
	// they disagree) so the same Guid can be declared twice with
	// different field lists without tripping ErrTypeCollision.
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32 := abi.PrimitiveF32

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{oldReg.InternPrimitive(f32)})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Value, []string{"x", "y"},
		[]*typeregistry.Type{newReg.InternPrimitive(f32), newReg.InternPrimitive(f32)})

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := actionNames(m), []string{"move", "zero"}; !equalStrings(got, want) {
		t.Fatalf("actions = %v, want %v", got, want)
	}
}

func TestPlanRenameField(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Gc, []string{"velocity"}, []*typeregistry.Type{f32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Gc, []string{"speed"}, []*typeregistry.Type{f32n})

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if m.Actions[0].Kind != ActionMove || m.Actions[0].OldIndex != 0 {
		t.Fatalf("rename did not resolve to a move of field 0: %+v", m.Actions[0])
	}
}

func TestPlanReorderFields(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	i32o := oldReg.InternPrimitive(abi.PrimitiveI32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)
	i32n := newReg.InternPrimitive(abi.PrimitiveI32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Value, []string{"a", "b"}, []*typeregistry.Type{f32o, i32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Value, []string{"b", "a"}, []*typeregistry.Type{i32n, f32n})

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	// Same names survive as identity moves even though position swapped.
	if m.Actions[0].Kind != ActionMove || m.Actions[0].OldIndex != 1 {
		t.Fatalf("new field 0 (b) = %+v, want move of old index 1", m.Actions[0])
	}
	if m.Actions[1].Kind != ActionMove || m.Actions[1].OldIndex != 0 {
		t.Fatalf("new field 1 (a) = %+v, want move of old index 0", m.Actions[1])
	}
}

func TestPlanDeleteField(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	i32o := oldReg.InternPrimitive(abi.PrimitiveI32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Value, []string{"a", "b"}, []*typeregistry.Type{f32o, i32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Value, []string{"a"}, []*typeregistry.Type{f32n})

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Actions) != 1 || m.Actions[0].Kind != ActionMove {
		t.Fatalf("actions = %+v, want a single move (b dropped)", m.Actions)
	}
}

func TestPlanWideningConversion(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	i32o := oldReg.InternPrimitive(abi.PrimitiveI32)
	i64n := newReg.InternPrimitive(abi.PrimitiveI64)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{i32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{i64n})

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if m.Actions[0].Kind != ActionConvertPrimitive || m.Actions[0].NewPrimitive != abi.PrimitiveI64 {
		t.Fatalf("x conversion = %+v, want ActionConvertPrimitive to i64", m.Actions[0])
	}
}

func TestPlanRejectsNarrowingAsDeleteInsert(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	i64o := oldReg.InternPrimitive(abi.PrimitiveI64)
	i32n := newReg.InternPrimitive(abi.PrimitiveI32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{i64o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{i32n})

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	// Narrowing is rejected at plan time; the pair falls back to
	// deletion+insertion (zeroed), not an error.
	if m.Actions[0].Kind != ActionZero {
		t.Fatalf("x = %+v, want ActionZero (narrowing rejected)", m.Actions[0])
	}
}

func TestPlanRejectsRenameAndFieldEdit(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)
	i32n := newReg.InternPrimitive(abi.PrimitiveI32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{f32o})
	// Struct itself renamed (P -> Q) *and* its field list changed.
	new := mustStruct(t, newReg, guid, "sample::Q", abi.Value, []string{"x", "y"},
		[]*typeregistry.Type{f32n, i32n})

	if _, err := Plan(old, new); err != ErrRenameAndEdit {
		t.Fatalf("Plan = %v, want ErrRenameAndEdit", err)
	}
}

func TestPlanFingerprintShortCircuitsIdenticalShape(t *testing.T) {
	reg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32 := reg.InternPrimitive(abi.PrimitiveF32)
	old := mustStruct(t, reg, guid, "sample::P", abi.Value, []string{"x"}, []*typeregistry.Type{f32})

	// Same *Type both sides: fingerprint must match and Plan takes the
	// identity shortcut rather than running the pairing algorithm.
	m, err := Plan(old, old)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Actions) != 1 || m.Actions[0].Kind != ActionMove || m.Actions[0].OldIndex != 0 {
		t.Fatalf("identity mapping = %+v", m.Actions)
	}
}

// TestPlanDetectsEmbeddedValueSchemaChange guards against the fingerprint
// short-circuit keying an embedded Value-kind struct field by its Guid
// alone: Inner keeps its Guid across the reload but gains a field, and
// Outer's own field list (name "inner", same Guid) looks unchanged by
// name/Guid — the fingerprint has to notice Inner's shape changed
// underneath it, or Plan(Outer) wrongly takes the identity shortcut and
// the new field on every live Inner never gets zero-initialized.
func TestPlanDetectsEmbeddedValueSchemaChange(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	innerGuid := abi.GuidFromName("sample::Inner")
	outerGuid := abi.GuidFromName("sample::Outer")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)

	oldInner := mustStruct(t, oldReg, innerGuid, "sample::Inner", abi.Value, []string{"x"}, []*typeregistry.Type{f32o})
	newInner := mustStruct(t, newReg, innerGuid, "sample::Inner", abi.Value, []string{"x", "y"},
		[]*typeregistry.Type{f32n, f32n})

	oldOuter := mustStruct(t, oldReg, outerGuid, "sample::Outer", abi.Value, []string{"inner"}, []*typeregistry.Type{oldInner})
	newOuter := mustStruct(t, newReg, outerGuid, "sample::Outer", abi.Value, []string{"inner"}, []*typeregistry.Type{newInner})

	m, err := Plan(oldOuter, newOuter)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Actions) != 1 || m.Actions[0].Kind != ActionConvertEmbedded {
		t.Fatalf("Outer.inner = %+v, want a single ActionConvertEmbedded (fingerprint must not take the identity shortcut)", m.Actions)
	}
	sub := m.Actions[0].SubMapping
	if sub == nil || len(sub.Actions) != 2 || sub.Actions[1].Kind != ActionZero {
		t.Fatalf("Inner sub-mapping = %+v, want [move, zero]", sub)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
