package abi

import "testing"

func sampleInfo() *AssemblyInfo {
	i64 := Concrete(GuidFromName("core::i64"))
	pointGuid := GuidFromName("sample::Point")
	return &AssemblyInfo{
		Version: Version,
		Module: ModuleInfo{
			Path: "sample.mun",
			Functions: []FunctionDef{
				{Prototype: FunctionPrototype{Name: "fibonacci", ArgTypes: []TypeID{i64}, ReturnType: i64}},
			},
			Types: []StructDefinition{
				{
					Guid:       pointGuid,
					Name:       "sample::Point",
					MemoryKind: Gc,
					SizeBits:   128,
					Fields: []FieldDef{
						{Name: "x", Type: Concrete(GuidFromName("core::f32"))},
						{Name: "y", Type: Concrete(GuidFromName("core::f32"))},
					},
				},
			},
		},
		Dispatch: []DispatchDescriptor{
			{Prototype: FunctionPrototype{Name: "fibonacci", ArgTypes: []TypeID{i64}, ReturnType: i64}},
		},
		TypeLUT: []TypeLUTDescriptor{
			{TypeID: Concrete(pointGuid), DebugName: "sample::Point"},
		},
		Dependencies: []string{"core.mun"},
	}
}

func TestEncodeReadRoundTrip(t *testing.T) {
	want := sampleInfo()
	data := Encode(want)

	got, err := Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if got.Module.Path != want.Module.Path {
		t.Errorf("Path = %q, want %q", got.Module.Path, want.Module.Path)
	}
	if len(got.Module.Functions) != 1 || got.Module.Functions[0].Prototype.Name != "fibonacci" {
		t.Fatalf("Functions = %+v", got.Module.Functions)
	}
	if len(got.Module.Types) != 1 || got.Module.Types[0].Name != "sample::Point" {
		t.Fatalf("Types = %+v", got.Module.Types)
	}
	if got.Module.Types[0].MemoryKind != Gc {
		t.Errorf("MemoryKind = %v, want Gc", got.Module.Types[0].MemoryKind)
	}
	if len(got.TypeLUT) != 1 || got.TypeLUT[0].TypeID.Key() != want.TypeLUT[0].TypeID.Key() {
		t.Fatalf("TypeLUT = %+v", got.TypeLUT)
	}
	if len(got.Dependencies) != 1 || got.Dependencies[0] != "core.mun" {
		t.Fatalf("Dependencies = %+v", got.Dependencies)
	}
}

func TestReadRejectsVersionMismatch(t *testing.T) {
	info := sampleInfo()
	info.Version = Version + 1
	data := Encode(info)

	_, err := Read(data)
	if err == nil {
		t.Fatal("expected version mismatch error")
	}
}

func TestReadRejectsTruncated(t *testing.T) {
	data := Encode(sampleInfo())
	for _, n := range []int{0, 1, 2, 3, 5, len(data) / 2} {
		if n > len(data) {
			continue
		}
		if _, err := Read(data[:n]); err == nil {
			t.Errorf("Read(%d bytes): expected error, got nil", n)
		}
	}
}

func TestTypeIDKeyStructuralIdentity(t *testing.T) {
	g := GuidFromName("sample::Point")
	a := Pointer(Concrete(g), true)
	b := Pointer(Concrete(g), true)
	c := Pointer(Concrete(g), false)

	if a.Key() != b.Key() {
		t.Errorf("structurally identical pointer TypeIDs produced different keys")
	}
	if a.Key() == c.Key() {
		t.Errorf("mutable and const pointer TypeIDs produced the same key")
	}
}

func FuzzRead(f *testing.F) {
	f.Add(Encode(sampleInfo()))
	f.Fuzz(func(t *testing.T, data []byte) {
		Fuzz(data)
	})
}
