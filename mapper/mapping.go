// Package mapper implements the Memory Mapper: diffing two versions of a
// struct type and migrating every live heap object across the change
// (spec.md §4.4). Planning and application are split so a reload can
// compute every affected type's Mapping, validate all of them, and only
// then touch the heap — an unrepresentable Mapping aborts the whole
// reload before anything is mutated.
package mapper

import (
	"errors"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// Errors returned by Plan. They correspond to spec.md §4.4's
// MappingError variants.
var (
	// ErrIncompatibleConversion names a same-name field pair whose
	// primitive conversion is disallowed. Neither Plan nor Apply returns
	// it: an inconvertible named pair falls through to
	// renamed-move/insertion/deletion instead (spec.md §4.4), and Apply
	// converts an unrepresentable value to the target's zero value. It
	// is kept as a distinct MappingError variant callers may match on.
	ErrIncompatibleConversion = errors.New("mapper: incompatible primitive conversion")

	// ErrAmbiguousRename is reserved for a renamed-move candidate set
	// with no unique closest-index winner. The tie-break rule in
	// spec.md §4.4 step 3 (closest index, ties to lower index) is total
	// over any non-empty candidate set, so this is never returned by
	// Plan today; it is kept because spec.md §7 names it as a distinct
	// MappingError variant callers may match on.
	ErrAmbiguousRename = errors.New("mapper: ambiguous rename")

	// ErrRenameAndEdit is returned when a struct's own name changed but
	// its fields also changed shape in the same reload (spec.md §4.4:
	// "A struct that is itself renamed cannot also have its fields
	// edited in the same reload").
	ErrRenameAndEdit = errors.New("mapper: struct renamed and fields edited in the same reload")

	// ErrNotAStruct is returned when Plan is given a non-struct type.
	ErrNotAStruct = errors.New("mapper: plan requires two struct types")

	// ErrGuidMismatch is returned when old and new do not share a Guid.
	ErrGuidMismatch = errors.New("mapper: old and new type have different guids")
)

// ActionKind discriminates what Apply does for one new-struct field.
type ActionKind uint8

const (
	// ActionZero zero-initializes the field: it has no old counterpart.
	ActionZero ActionKind = iota
	// ActionMove copies OldIndex's value across unchanged (identical
	// type, or a Gc-kind reference field whose pointee is migrated
	// independently by its own type's Mapping).
	ActionMove
	// ActionConvertPrimitive copies OldIndex's value through a widening
	// primitive conversion into NewPrimitive.
	ActionConvertPrimitive
	// ActionConvertEmbedded recursively migrates an embedded struct
	// field via SubMapping, performing a value<->gc boxing conversion
	// first if OldGc != NewGc.
	ActionConvertEmbedded
)

// FieldAction describes how one field of the new struct is produced.
type FieldAction struct {
	Kind ActionKind

	// OldIndex is the paired old field's index, valid for ActionMove,
	// ActionConvertPrimitive and ActionConvertEmbedded.
	OldIndex int

	// NewPrimitive is the conversion target for ActionConvertPrimitive.
	NewPrimitive abi.PrimitiveKind

	// SubMapping migrates an embedded struct's own fields, for
	// ActionConvertEmbedded.
	SubMapping *Mapping
	// OldGc / NewGc record the embedded field's memory kind on each
	// side, so Apply knows whether to box, unbox, or pass a handle
	// straight through.
	OldGc, NewGc bool
}

// Mapping is a migration plan from Old to New, one struct type to
// another version of the same Guid (spec.md §4.4).
type Mapping struct {
	Old, New *typeregistry.Type
	// Actions has one entry per New field, in New's declaration order.
	Actions []FieldAction
}
