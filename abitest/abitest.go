// Package abitest builds in-memory abi.AssemblyInfo fixtures for tests
// elsewhere in this module, the same role mapper's and linker's own
// inline test helpers (mustStruct, equalStrings) play for those packages,
// hoisted out because runtime's end-to-end tests need the same fixtures
// shaped several different ways across a simulated reload.
package abitest

import (
	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// Guid derives a struct or primitive's well-known Guid the same way
// every loaded assembly's compiler front end would: from its canonical,
// module-qualified name.
func Guid(modulePath, name string) abi.Guid {
	return abi.GuidFromName(typeregistry.CanonicalName(modulePath, name))
}

// PrimitiveGuid returns the well-known Guid for one of the eleven
// built-in primitive kinds, keyed by its canonical "core::<name>" spelling
// (e.g. "core::f32") — the same derivation typeregistry's own
// primitiveGuid uses internally.
func PrimitiveGuid(name string) abi.Guid {
	return Guid("", "core::"+name)
}

// Struct builds a StructDefinition with fields in declaration order.
func Struct(modulePath, name string, kind abi.MemoryKind, fields ...abi.FieldDef) abi.StructDefinition {
	return abi.StructDefinition{
		Guid:       Guid(modulePath, name),
		Name:       name,
		MemoryKind: kind,
		Fields:     fields,
	}
}

// Field builds a FieldDef for a concrete (primitive or struct) type.
func Field(name string, typeGuid abi.Guid) abi.FieldDef {
	return abi.FieldDef{Name: name, Type: abi.Concrete(typeGuid)}
}

// Function builds a FunctionDef with the given argument types (none when
// argTypes is omitted) and a zero ReturnType, wrapping impl.
func Function(name string, impl abi.NativeFunc, argTypes ...abi.TypeID) abi.FunctionDef {
	return abi.FunctionDef{
		Prototype: abi.FunctionPrototype{Name: name, ArgTypes: argTypes},
		Impl:      impl,
	}
}

// Module is a fluent builder for one assembly's worth of AssemblyInfo,
// assembled into a full blob-free abi.AssemblyInfo (the same
// directly-constructed shape assembly.New accepts, bypassing the wire
// encoding entirely — spec.md's six end-to-end scenarios in §8 are about
// runtime semantics across a reload, not the byte-level ABI encoding,
// which abi's own reader_test.go already covers).
type Module struct {
	path string
	info abi.AssemblyInfo
}

// NewModule starts a builder for the assembly that will be loaded from
// path (path never needs to exist on disk; it is only ever used as a map
// key and log field once handed to assembly.New).
func NewModule(path string) *Module {
	return &Module{path: path, info: abi.AssemblyInfo{Version: abi.Version}}
}

func (m *Module) WithFunction(def abi.FunctionDef) *Module {
	m.info.Module.Functions = append(m.info.Module.Functions, def)
	return m
}

func (m *Module) WithStruct(def abi.StructDefinition) *Module {
	m.info.Module.Types = append(m.info.Module.Types, def)
	return m
}

func (m *Module) WithDependency(path string) *Module {
	m.info.Dependencies = append(m.info.Dependencies, path)
	return m
}

func (m *Module) WithDispatch(prototype abi.FunctionPrototype) *Module {
	m.info.Dispatch = append(m.info.Dispatch, abi.DispatchDescriptor{Prototype: prototype})
	return m
}

func (m *Module) WithTypeLUTEntry(id abi.TypeID, debugName string) *Module {
	m.info.TypeLUT = append(m.info.TypeLUT, abi.TypeLUTDescriptor{TypeID: id, DebugName: debugName})
	return m
}

// Path returns the path this module was built for.
func (m *Module) Path() string {
	return m.path
}

// Info returns the built AssemblyInfo.
func (m *Module) Info() *abi.AssemblyInfo {
	return &m.info
}
