package typeregistry

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mun-lang/mun-runtime/abi"
)

// ErrTypeCollision is returned when two assemblies define a type with the
// same Guid but disagree on field count, field names, field TypeIDs, or
// memory kind (spec.md §4.2, "Return-type collision policy").
var ErrTypeCollision = errors.New("typeregistry: type collision")

// nameCacheSize bounds the find_by_name LRU. It is purely a performance
// cache in front of the authoritative map — a miss always falls through
// to the map, so its size only affects hit rate, never correctness.
const nameCacheSize = 4096

// Registry interns type descriptors and is the sole authority for Type
// identity (spec.md Invariant 1: at most one live Type exists for any
// given TypeId).
type Registry struct {
	mu sync.Mutex

	byID   map[string]*Type
	byName *lru.Cache[string, *Type]

	// byGuidDecl remembers the declaration (field names/types/memory kind)
	// a Guid was first interned with, so a later assembly defining the
	// same Guid differently is caught as a collision instead of silently
	// overwriting the interned Type out from under live objects.
	byGuidDecl map[abi.Guid]declSignature
}

type declSignature struct {
	memoryKind abi.MemoryKind
	fieldNames []string
	fieldTypes []string // TypeID.Key(), by declaration order
}

// New creates an empty Registry.
func New() *Registry {
	cache, err := lru.New[string, *Type](nameCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which nameCacheSize
		// never is.
		panic(err)
	}
	return &Registry{
		byID:       make(map[string]*Type),
		byName:     cache,
		byGuidDecl: make(map[abi.Guid]declSignature),
	}
}

// InternPrimitive interns (or returns the existing) Type for a primitive
// kind. Primitive types have a well-known, engine-defined Guid so they
// intern identically regardless of which assembly first mentions them.
func (r *Registry) InternPrimitive(kind abi.PrimitiveKind) *Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := abi.Concrete(primitiveGuid(kind)).Key()
	if t, ok := r.byID[id]; ok {
		return t
	}

	sizeBits := kind.SizeBits()
	t := &Type{
		Name:      primitiveName(kind),
		SizeBytes: sizeBits / 8,
		Alignment: sizeBits / 8,
		Kind:      KindPrimitive,
		Primitive: kind,
		id:        id,
	}
	if t.Alignment == 0 {
		t.Alignment = 1
	}
	r.byID[id] = t
	r.byName.Add(t.Name, t)
	return t
}

// InternStruct interns a struct type. fieldTypes must already be resolved
// *Type values (the caller resolves each field's TypeID through this same
// registry first, so nested structs/pointers/arrays are always already
// interned). Returns ErrTypeCollision if the Guid was previously interned
// with an incompatible declaration.
func (r *Registry) InternStruct(guid abi.Guid, name string, memoryKind abi.MemoryKind,
	fieldNames []string, fieldTypes []*Type) (*Type, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	id := abi.Concrete(guid).Key()

	sig := declSignature{
		memoryKind: memoryKind,
		fieldNames: append([]string(nil), fieldNames...),
		fieldTypes: make([]string, len(fieldTypes)),
	}
	for i, ft := range fieldTypes {
		sig.fieldTypes[i] = ft.id
	}

	if existing, ok := r.byGuidDecl[guid]; ok {
		if !existing.equal(sig) {
			return nil, fmt.Errorf("%w: guid %s previously declared with a different shape", ErrTypeCollision, guid)
		}
		return r.byID[id], nil
	}

	size, align, offsets := computeLayout(fieldTypes)
	fields := make([]Field, len(fieldTypes))
	for i, ft := range fieldTypes {
		fields[i] = Field{Name: fieldNames[i], Type: ft, ByteOffset: offsets[i]}
	}

	t := &Type{
		Name:      name,
		SizeBytes: size,
		Alignment: align,
		Kind:      KindStruct,
		Struct:    StructData{Guid: guid, MemoryKind: memoryKind, Fields: fields},
		id:        id,
	}
	r.byID[id] = t
	r.byName.Add(name, t)
	r.byGuidDecl[guid] = sig
	return t, nil
}

// DeclareStruct creates (or returns the existing) interned stub for a
// struct Guid before its fields are known: an assembly's struct
// definitions can reference each other cyclically through Gc-kind
// (reference) fields, which FieldSizeAlign gives a fixed pointer-sized
// contribution regardless of the pointee's own layout — so a loader can
// declare every struct's stub up front, in any order, then resolve field
// types against those stable pointers, and only then call FinishStruct
// once every field is known. DeclareStruct alone never runs the
// collision check InternStruct/FinishStruct do, since an undeclared
// shape can't yet disagree with anything.
func (r *Registry) DeclareStruct(guid abi.Guid, name string, memoryKind abi.MemoryKind) *Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := abi.Concrete(guid).Key()
	if t, ok := r.byID[id]; ok {
		return t
	}
	t := &Type{
		Name: name,
		Kind: KindStruct,
		Struct: StructData{
			Guid:       guid,
			MemoryKind: memoryKind,
		},
		id: id,
	}
	r.byID[id] = t
	r.byName.Add(name, t)
	return t
}

// FinishStruct computes t's layout from its now-fully-resolved field
// types and fills it in, completing a DeclareStruct stub. Like
// InternStruct, a Guid already finished with an incompatible declaration
// is rejected with ErrTypeCollision; finishing an already-finished stub
// with an identical declaration is a no-op, matching InternStruct's own
// "return the existing Type" behavior for a repeat declaration.
func (r *Registry) FinishStruct(t *Type, fieldNames []string, fieldTypes []*Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig := declSignature{
		memoryKind: t.Struct.MemoryKind,
		fieldNames: append([]string(nil), fieldNames...),
		fieldTypes: make([]string, len(fieldTypes)),
	}
	for i, ft := range fieldTypes {
		sig.fieldTypes[i] = ft.id
	}

	guid := t.Struct.Guid
	if existing, ok := r.byGuidDecl[guid]; ok {
		if !existing.equal(sig) {
			return fmt.Errorf("%w: guid %s previously declared with a different shape", ErrTypeCollision, guid)
		}
		return nil
	}

	size, align, offsets := computeLayout(fieldTypes)
	fields := make([]Field, len(fieldTypes))
	for i, ft := range fieldTypes {
		fields[i] = Field{Name: fieldNames[i], Type: ft, ByteOffset: offsets[i]}
	}
	t.SizeBytes = size
	t.Alignment = align
	t.Struct.Fields = fields
	r.byGuidDecl[guid] = sig
	return nil
}

// InternPointer interns a pointer type, keyed by structural identity
// (pointee + mutability), not by Guid (spec.md §4.2).
func (r *Registry) InternPointer(pointee *Type, mutable bool) *Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := pointerKey(pointee, mutable)
	if t, ok := r.byID[id]; ok {
		return t
	}

	t := &Type{
		Name:      pointerName(pointee, mutable),
		SizeBytes: PointerSize,
		Alignment: PointerAlignment,
		Kind:      KindPointer,
		Pointer:   PointerData{Pointee: pointee, Mutable: mutable},
		id:        id,
	}
	r.byID[id] = t
	return t
}

// InternArray interns an array type, keyed by structural identity
// (element type).
func (r *Registry) InternArray(element *Type) *Type {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := arrayKey(element)
	if t, ok := r.byID[id]; ok {
		return t
	}

	t := &Type{
		Name:      "[" + element.Name + "]",
		SizeBytes: PointerSize,
		Alignment: PointerAlignment,
		Kind:      KindArray,
		Array:     ArrayData{Element: element},
		id:        id,
	}
	r.byID[id] = t
	return t
}

// FindByID resolves a TypeId to its interned Type, if any.
func (r *Registry) FindByID(id abi.TypeID) (*Type, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id.Key()]
	return t, ok
}

// FindByName resolves a type by its declared name, preferring the LRU
// cache and falling back to a full scan of the authoritative map (the map
// itself isn't name-indexed, so a miss costs a linear pass; this mirrors
// the "advisory cache in front of a map" shape of a hot lookup path under
// reload churn, not an additional source of truth).
func (r *Registry) FindByName(name string) (*Type, bool) {
	if t, ok := r.byName.Get(name); ok {
		return t, true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.byID {
		if t.Name == name {
			r.byName.Add(name, t)
			return t, true
		}
	}
	return nil, false
}

func (d declSignature) equal(o declSignature) bool {
	if d.memoryKind != o.memoryKind {
		return false
	}
	if len(d.fieldNames) != len(o.fieldNames) {
		return false
	}
	for i := range d.fieldNames {
		if d.fieldNames[i] != o.fieldNames[i] || d.fieldTypes[i] != o.fieldTypes[i] {
			return false
		}
	}
	return true
}

func pointerKey(pointee *Type, mutable bool) string {
	m := "const"
	if mutable {
		m = "mut"
	}
	return fmt.Sprintf("P:%s:%s", m, pointee.id)
}

func pointerName(pointee *Type, mutable bool) string {
	if mutable {
		return "*mut " + pointee.Name
	}
	return "*const " + pointee.Name
}

func arrayKey(element *Type) string {
	return "A:" + element.id
}
