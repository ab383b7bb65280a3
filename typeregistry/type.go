// Package typeregistry interns type descriptors across assemblies,
// resolves TypeId to Type, and computes struct size/alignment/layout
// (spec.md §4.2).
package typeregistry

import (
	"sync/atomic"

	"github.com/mun-lang/mun-runtime/abi"
)

// Kind discriminates the variants of a Type.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindStruct
	KindPointer
	KindArray
)

// Field is one resolved, laid-out field of a struct.
type Field struct {
	Name       string
	Type       *Type
	ByteOffset uint32
}

// StructData is the resolved shape of a struct type: its fields in
// declaration order (with recomputed byte offsets), its memory kind, and
// the Guid that identifies it across assemblies and reloads.
type StructData struct {
	Guid       abi.Guid
	MemoryKind abi.MemoryKind
	Fields     []Field
}

// PointerData describes a `*const T` or `*mut T` type.
type PointerData struct {
	Pointee *Type
	Mutable bool
}

// ArrayData describes a `[T]` type.
type ArrayData struct {
	Element *Type
}

// Type is an interned, shared type descriptor. Equality of *Type is
// pointer equality (spec.md Invariant 1): the registry is the sole
// authority for identity, so two TypeIDs describing the same shape always
// resolve to the exact same *Type value.
type Type struct {
	Name      string
	SizeBytes uint32
	Alignment uint32
	Kind      Kind

	Primitive abi.PrimitiveKind
	Struct    StructData
	Pointer   PointerData
	Array     ArrayData

	// id is the structural key this Type was interned under (see ID).
	id string

	refs atomic.Int32
}

// Retain increments the type's reference count. Matches the host-runtime
// API's "reference-count management" operation on a Type handle
// (spec.md §6.2).
func (t *Type) Retain() {
	t.refs.Add(1)
}

// Release decrements the reference count and reports whether it reached
// zero. The Registry keeps the interned entry either way; nothing in this
// package removes it.
func (t *Type) Release() bool {
	return t.refs.Add(-1) == 0
}

// RefCount returns the current reference count, mainly for tests.
func (t *Type) RefCount() int32 {
	return t.refs.Load()
}

// ID returns the structural key t was interned under. Stable for the
// lifetime of the process and usable as a fingerprint input by callers
// outside this package (the Memory Mapper's change-detection hash, in
// particular) without exposing interning machinery itself.
func (t *Type) ID() string {
	return t.id
}

// IsGc reports whether a struct type is heap-allocated/handle-referenced.
func (t *Type) IsGc() bool {
	return t.Kind == KindStruct && t.Struct.MemoryKind == abi.Gc
}

// PointerSize matches the size/alignment contributed by any field that is
// stored as a handle or raw pointer: spec.md §4.2, "Gc kind in a field
// position ... contributes sizeof(pointer) and alignof(pointer)".
const (
	PointerSize      = 8
	PointerAlignment = 8
)

// FieldSizeAlign returns the size and alignment a field of type ft
// contributes to its containing struct's layout: its own size/alignment
// for a Value struct or a primitive, pointer size/alignment for a Gc
// struct, a Pointer, or an Array (spec.md §4.2 — all three are stored as
// a handle/raw pointer in a field position).
func FieldSizeAlign(ft *Type) (size, align uint32) {
	switch {
	case ft.Kind == KindStruct && ft.Struct.MemoryKind == abi.Gc:
		return PointerSize, PointerAlignment
	case ft.Kind == KindPointer, ft.Kind == KindArray:
		return PointerSize, PointerAlignment
	default:
		return ft.SizeBytes, ft.Alignment
	}
}

// IsReference reports whether a field of this type is walked by the GC
// mark phase as an indirection (spec.md §4.3: "Gc ... Pointer ... or
// Array-of-reference"), as opposed to a value field walked in place or a
// primitive field ignored outright.
func (t *Type) IsReference() bool {
	if t.Kind == KindPointer {
		return true
	}
	if t.Kind == KindArray {
		return t.Array.Element != nil && (t.Array.Element.Kind == KindStruct && t.Array.Element.Struct.MemoryKind == abi.Gc || t.Array.Element.Kind == KindPointer)
	}
	return t.Kind == KindStruct && t.Struct.MemoryKind == abi.Gc
}
