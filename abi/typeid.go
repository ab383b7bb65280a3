package abi

import "fmt"

// TypeIDKind discriminates the tagged union spec.md §3 calls TypeId.
type TypeIDKind uint8

const (
	// KindConcrete identifies a type by Guid.
	KindConcrete TypeIDKind = iota
	// KindPointer identifies `Pointer { pointee, mutable }`.
	KindPointer
	// KindArray identifies `Array { element }`.
	KindArray
)

// TypeID is the key an assembly uses to refer to a type it did not
// necessarily define. It is a recursive tagged union: Pointer and Array
// variants carry a nested TypeID through a pointer field, which keeps the
// struct small and lets it express arbitrary pointer/array nesting
// (e.g. `*mut [Foo]`) without a separate table.
//
// TypeID is not used as a Go map key directly (a *TypeID field makes the
// struct's equality address-sensitive, not structural) — use Key() to
// obtain a stable, structural string key for interning, exactly the
// "structural identity (pointee + mutability; element)" rule in spec.md §4.2.
type TypeID struct {
	Kind    TypeIDKind
	Concrete Guid
	Pointee  *TypeID
	Mutable  bool
	Element  *TypeID
}

// Concrete constructs a TypeID for a concrete (struct or primitive) type.
func Concrete(g Guid) TypeID {
	return TypeID{Kind: KindConcrete, Concrete: g}
}

// Pointer constructs a TypeID for a pointer to pointee.
func Pointer(pointee TypeID, mutable bool) TypeID {
	p := pointee
	return TypeID{Kind: KindPointer, Pointee: &p, Mutable: mutable}
}

// Array constructs a TypeID for an array of element.
func Array(element TypeID) TypeID {
	e := element
	return TypeID{Kind: KindArray, Element: &e}
}

// Key returns a structural, stable string identity for this TypeID, used
// by the Type Registry's intern maps. Two TypeIDs describing the same
// shape always produce the same Key, regardless of where they came from.
func (t TypeID) Key() string {
	switch t.Kind {
	case KindConcrete:
		return "C:" + t.Concrete.String()
	case KindPointer:
		m := "const"
		if t.Mutable {
			m = "mut"
		}
		return fmt.Sprintf("P:%s:%s", m, t.Pointee.Key())
	case KindArray:
		return "A:" + t.Element.Key()
	default:
		return "?"
	}
}

func (t TypeID) String() string {
	switch t.Kind {
	case KindConcrete:
		return t.Concrete.String()
	case KindPointer:
		if t.Mutable {
			return "*mut " + t.Pointee.String()
		}
		return "*const " + t.Pointee.String()
	case KindArray:
		return "[" + t.Element.String() + "]"
	default:
		return "<invalid TypeID>"
	}
}
