package abi

// FunctionPrototype is the call signature declared for a dispatch-table
// slot or a function definition (spec.md §3).
type FunctionPrototype struct {
	Name       string
	ArgTypes   []TypeID
	ReturnType TypeID
}

// Equal reports whether two prototypes describe the same call signature:
// same argument count, same per-argument TypeID, same return TypeID. Name
// is deliberately excluded — the Linker compares signatures of entries it
// has already matched by name.
func (p FunctionPrototype) Equal(o FunctionPrototype) bool {
	if len(p.ArgTypes) != len(o.ArgTypes) {
		return false
	}
	for i := range p.ArgTypes {
		if p.ArgTypes[i].Key() != o.ArgTypes[i].Key() {
			return false
		}
	}
	return p.ReturnType.Key() == o.ReturnType.Key()
}

// NativeFunc is the callable body backing a FunctionDef. The compiler
// front end and code generator that would normally produce machine code
// for a Mun function are out of scope (spec.md §1); this runtime accepts
// the compiled body as a Go closure supplied by whoever builds the
// AssemblyInfo (a host, for extern functions, or code that constructs an
// AssemblyInfo in memory). Functions read from a file by Read and
// assembly.Load have no body attached.
type NativeFunc func(args []any) (any, error)

// FunctionDef is an exported function: its signature plus its callable
// body. It is owned by whichever assembly exports the symbol.
type FunctionDef struct {
	Prototype FunctionPrototype
	Impl      NativeFunc
}

// FieldDef is one field of a struct definition as declared in the ABI
// blob. OffsetHint mirrors the wire format's field_offsets[] entry; per
// spec.md §4.2 it is informational only, the Type Registry always
// recomputes true offsets from the published layout rule.
type FieldDef struct {
	Name       string
	Type       TypeID
	OffsetHint uint32
}

// StructDefinition is a struct type as declared in an assembly's ABI blob.
type StructDefinition struct {
	Guid       Guid
	Name       string
	MemoryKind MemoryKind
	Fields     []FieldDef
	SizeBits   uint32 // informational only, see spec.md §4.2
}

// ModuleInfo holds every function and type an assembly defines.
type ModuleInfo struct {
	Path      string
	Functions []FunctionDef
	Types     []StructDefinition
}

// DispatchDescriptor is one entry of an assembly's dispatch table: a
// prototype that some call site in the assembly's (notional) generated
// code needs resolved against an export.
type DispatchDescriptor struct {
	Prototype FunctionPrototype
}

// TypeLUTDescriptor is one entry of an assembly's type lookup table: a
// TypeID some call site needs resolved to a live *typeregistry.Type.
type TypeLUTDescriptor struct {
	TypeID    TypeID
	DebugName string
}

// AssemblyInfo is the parsed form of the embedded metadata block
// (spec.md §6.1).
type AssemblyInfo struct {
	Version      uint32
	Module       ModuleInfo
	Dispatch     []DispatchDescriptor
	TypeLUT      []TypeLUTDescriptor
	Dependencies []string
}
