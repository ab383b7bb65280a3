package mapper

import (
	"testing"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/gc"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

func TestApplyAddFieldZeroInitializes(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Gc, []string{"x"}, []*typeregistry.Type{f32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Gc, []string{"x", "y"}, []*typeregistry.Type{f32n, f32n})

	heap := gc.NewHeap(0)
	h, err := heap.Alloc(old)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetField("x", float32(2)); err != nil {
		t.Fatal(err)
	}

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if err := Apply(heap, m); err != nil {
		t.Fatal(err)
	}

	x, err := h.Field("x")
	if err != nil || x.(float32) != 2 {
		t.Fatalf("x = %v, %v, want 2", x, err)
	}
	y, err := h.Field("y")
	if err != nil || y.(float32) != 0 {
		t.Fatalf("y = %v, %v, want 0 (zero-initialized insertion)", y, err)
	}
}

func TestApplyRenameFieldPreservesValue(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Gc, []string{"velocity"}, []*typeregistry.Type{f32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Gc, []string{"speed"}, []*typeregistry.Type{f32n})

	heap := gc.NewHeap(0)
	h, err := heap.Alloc(old)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetField("velocity", float32(2)); err != nil {
		t.Fatal(err)
	}

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if err := Apply(heap, m); err != nil {
		t.Fatal(err)
	}

	// The Handle's outer identity is unchanged; only the field it
	// resolves through now has a new name.
	speed, err := h.Field("speed")
	if err != nil || speed.(float32) != 2 {
		t.Fatalf("speed = %v, %v, want 2 after rename", speed, err)
	}
	if typ, _ := h.Type(); typ != new {
		t.Fatalf("handle type after migration = %v, want new type", typ)
	}
}

func TestApplyWideningConversionPreservesSign(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	guid := abi.GuidFromName("sample::P")
	i32o := oldReg.InternPrimitive(abi.PrimitiveI32)
	i64n := newReg.InternPrimitive(abi.PrimitiveI64)

	old := mustStruct(t, oldReg, guid, "sample::P", abi.Gc, []string{"x"}, []*typeregistry.Type{i32o})
	new := mustStruct(t, newReg, guid, "sample::P", abi.Gc, []string{"x"}, []*typeregistry.Type{i64n})

	heap := gc.NewHeap(0)
	h, _ := heap.Alloc(old)
	if err := h.SetField("x", int32(-7)); err != nil {
		t.Fatal(err)
	}

	m, err := Plan(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if err := Apply(heap, m); err != nil {
		t.Fatal(err)
	}

	x, err := h.Field("x")
	if err != nil || x.(int64) != -7 {
		t.Fatalf("x = %v, %v, want int64(-7)", x, err)
	}
}

func TestApplyValueToGcFieldConversion(t *testing.T) {
	oldReg := typeregistry.New()
	newReg := typeregistry.New()
	innerGuid := abi.GuidFromName("sample::Inner")
	outerGuid := abi.GuidFromName("sample::Outer")

	f32o := oldReg.InternPrimitive(abi.PrimitiveF32)
	f32n := newReg.InternPrimitive(abi.PrimitiveF32)

	innerOld := mustStruct(t, oldReg, innerGuid, "sample::Inner", abi.Value, []string{"v"}, []*typeregistry.Type{f32o})
	innerNew := mustStruct(t, newReg, innerGuid, "sample::Inner", abi.Gc, []string{"v"}, []*typeregistry.Type{f32n})

	outerOld := mustStruct(t, oldReg, outerGuid, "sample::Outer", abi.Gc, []string{"inner"}, []*typeregistry.Type{innerOld})
	outerNew := mustStruct(t, newReg, outerGuid, "sample::Outer", abi.Gc, []string{"inner"}, []*typeregistry.Type{innerNew})

	heap := gc.NewHeap(0)
	h, err := heap.Alloc(outerOld)
	if err != nil {
		t.Fatal(err)
	}
	inner, err := h.Field("inner")
	if err != nil {
		t.Fatal(err)
	}
	innerValue, ok := inner.(*gc.Value)
	if !ok || innerValue == nil {
		t.Fatalf("inner = %#v, want *gc.Value", inner)
	}
	if err := innerValue.SetField("v", float32(3)); err != nil {
		t.Fatal(err)
	}

	m, err := Plan(outerOld, outerNew)
	if err != nil {
		t.Fatal(err)
	}
	if err := Apply(heap, m); err != nil {
		t.Fatal(err)
	}

	migratedInner, err := h.Field("inner")
	if err != nil {
		t.Fatal(err)
	}
	innerHandle, ok := migratedInner.(*gc.Handle)
	if !ok || innerHandle == nil {
		t.Fatalf("inner after migration = %#v, want *gc.Handle (boxed)", migratedInner)
	}
	v, err := innerHandle.Field("v")
	if err != nil || v.(float32) != 3 {
		t.Fatalf("inner.v = %v, %v, want 3", v, err)
	}
}
