package linker

import (
	"testing"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/assembly"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

func proto(name string, args []abi.TypeID, ret abi.TypeID) abi.FunctionPrototype {
	return abi.FunctionPrototype{Name: name, ArgTypes: args, ReturnType: ret}
}

func i32ID() abi.TypeID {
	return abi.Concrete(abi.GuidFromName("core::i32"))
}

func TestLinkResolvesHostFunction(t *testing.T) {
	reg := typeregistry.New()
	p := proto("add", []abi.TypeID{i32ID(), i32ID()}, i32ID())

	host := abi.FunctionDef{Prototype: p, Impl: func(args []any) (any, error) { return nil, nil }}
	m := assembly.New("caller.so", &abi.AssemblyInfo{
		Dispatch: []abi.DispatchDescriptor{{Prototype: p}},
	})

	ctx := &Context{Host: []abi.FunctionDef{host}, Types: reg}
	if err := Link(m, ctx); err != nil {
		t.Fatalf("Link: %v", err)
	}
	slots := m.Dispatch()
	if len(slots) != 1 || slots[0].Fn == nil {
		t.Fatalf("dispatch slots = %+v, want one resolved slot", slots)
	}
}

func TestLinkResolvesOtherAssemblyExport(t *testing.T) {
	reg := typeregistry.New()
	p := proto("double", []abi.TypeID{i32ID()}, i32ID())

	lib := assembly.New("lib.so", &abi.AssemblyInfo{
		Module: abi.ModuleInfo{Functions: []abi.FunctionDef{{Prototype: p, Impl: func(args []any) (any, error) { return nil, nil }}}},
	})
	caller := assembly.New("caller.so", &abi.AssemblyInfo{
		Dispatch: []abi.DispatchDescriptor{{Prototype: p}},
	})

	ctx := &Context{Assemblies: []*assembly.Manager{lib}, Types: reg}
	if err := Link(caller, ctx); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if caller.Dispatch()[0].Fn == nil {
		t.Fatal("expected dispatch slot bound to lib's export")
	}
}

func TestLinkMissingFunction(t *testing.T) {
	reg := typeregistry.New()
	p := proto("ghost", nil, i32ID())
	m := assembly.New("caller.so", &abi.AssemblyInfo{Dispatch: []abi.DispatchDescriptor{{Prototype: p}}})

	err := Link(m, &Context{Types: reg})
	le, ok := err.(*LinkError)
	if !ok {
		t.Fatalf("err = %v, want *LinkError", err)
	}
	if len(le.Entries) != 1 || le.Entries[0].Kind != MissingFunction || le.Entries[0].Name != "ghost" {
		t.Fatalf("entries = %+v", le.Entries)
	}
}

func TestLinkDuplicateFunction(t *testing.T) {
	reg := typeregistry.New()
	p := proto("add", nil, i32ID())
	impl := func(args []any) (any, error) { return nil, nil }

	a := assembly.New("a.so", &abi.AssemblyInfo{Module: abi.ModuleInfo{Functions: []abi.FunctionDef{{Prototype: p, Impl: impl}}}})
	b := assembly.New("b.so", &abi.AssemblyInfo{Module: abi.ModuleInfo{Functions: []abi.FunctionDef{{Prototype: p, Impl: impl}}}})
	caller := assembly.New("caller.so", &abi.AssemblyInfo{Dispatch: []abi.DispatchDescriptor{{Prototype: p}}})

	err := Link(caller, &Context{Assemblies: []*assembly.Manager{a, b}, Types: reg})
	le, ok := err.(*LinkError)
	if !ok || le.Entries[0].Kind != DuplicateFunction {
		t.Fatalf("err = %v, want DuplicateFunction", err)
	}
}

func TestLinkSignatureMismatch(t *testing.T) {
	reg := typeregistry.New()
	want := proto("add", []abi.TypeID{i32ID(), i32ID()}, i32ID())
	got := proto("add", []abi.TypeID{i32ID()}, i32ID()) // host only takes one arg

	host := abi.FunctionDef{Prototype: got, Impl: func(args []any) (any, error) { return nil, nil }}
	caller := assembly.New("caller.so", &abi.AssemblyInfo{Dispatch: []abi.DispatchDescriptor{{Prototype: want}}})

	err := Link(caller, &Context{Host: []abi.FunctionDef{host}, Types: reg})
	le, ok := err.(*LinkError)
	if !ok || le.Entries[0].Kind != SignatureMismatch {
		t.Fatalf("err = %v, want SignatureMismatch", err)
	}
}

func TestLinkMissingType(t *testing.T) {
	reg := typeregistry.New()
	unknown := abi.Concrete(abi.GuidFromName("sample::Ghost"))
	m := assembly.New("caller.so", &abi.AssemblyInfo{
		TypeLUT: []abi.TypeLUTDescriptor{{TypeID: unknown, DebugName: "sample::Ghost"}},
	})

	err := Link(m, &Context{Types: reg})
	le, ok := err.(*LinkError)
	if !ok || le.Entries[0].Kind != MissingType || le.Entries[0].Name != "sample::Ghost" {
		t.Fatalf("err = %v, want MissingType(sample::Ghost)", err)
	}
}

func TestLinkResolvesType(t *testing.T) {
	reg := typeregistry.New()
	want := reg.InternPrimitive(abi.PrimitiveI32)

	// The well-known Guid a primitive interns under is derived from its
	// canonicalized name, the same rule InternPrimitive itself follows
	// (typeregistry/primitives.go); reproducing that derivation here
	// (rather than asserting against an arbitrary Guid) is what makes
	// this a real resolution test instead of a tautology.
	id := abi.Concrete(abi.GuidFromName(typeregistry.CanonicalName("", "core::i32")))

	m := assembly.New("caller.so", &abi.AssemblyInfo{
		TypeLUT: []abi.TypeLUTDescriptor{{TypeID: id, DebugName: "core::i32"}},
	})
	if err := Link(m, &Context{Types: reg}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if got := m.TypeLUT()[0].Type; got == nil || got != want {
		t.Fatalf("resolved type = %v, want the interned i32 Type", got)
	}
}

func TestLinkIsIdempotent(t *testing.T) {
	reg := typeregistry.New()
	p := proto("add", nil, i32ID())
	host := abi.FunctionDef{Prototype: p, Impl: func(args []any) (any, error) { return nil, nil }}
	m := assembly.New("caller.so", &abi.AssemblyInfo{Dispatch: []abi.DispatchDescriptor{{Prototype: p}}})

	ctx := &Context{Host: []abi.FunctionDef{host}, Types: reg}
	if err := Link(m, ctx); err != nil {
		t.Fatal(err)
	}
	first := m.Dispatch()[0]
	if err := Link(m, ctx); err != nil {
		t.Fatal(err)
	}
	second := m.Dispatch()[0]
	if first.Prototype.Name != second.Prototype.Name {
		t.Fatalf("re-linking produced a different slot: %+v vs %+v", first, second)
	}
}
