package mapper

import (
	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// Plan diffs old and new — both struct types sharing a Guid, normally
// two versions of the same declaration loaded across a reload — and
// produces a Mapping describing how to migrate each existing object
// (spec.md §4.4). It implements the five-step field-pairing algorithm in
// priority order: identity move, named conversion, renamed move,
// insertion, deletion.
func Plan(old, new *typeregistry.Type) (*Mapping, error) {
	if old == nil || new == nil || old.Kind != typeregistry.KindStruct || new.Kind != typeregistry.KindStruct {
		return nil, ErrNotAStruct
	}
	if old.Struct.Guid != new.Struct.Guid {
		return nil, ErrGuidMismatch
	}

	if fingerprint(old) == fingerprint(new) {
		return identityMapping(old, new), nil
	}

	oldFields := old.Struct.Fields
	newFields := new.Struct.Fields
	oldUsed := make([]bool, len(oldFields))
	newUsed := make([]bool, len(newFields))
	actions := make([]FieldAction, len(newFields))

	// Step 1: identity move — same name, same Type.
	for j := range newFields {
		for i := range oldFields {
			if oldUsed[i] {
				continue
			}
			if oldFields[i].Name == newFields[j].Name && typesEqual(oldFields[i].Type, newFields[j].Type) {
				actions[j] = FieldAction{Kind: ActionMove, OldIndex: i}
				oldUsed[i] = true
				newUsed[j] = true
				break
			}
		}
	}

	// Step 2: named conversion — same name, remaining fields; attempt a
	// type conversion. A same-named pair that cannot convert is left
	// unpaired here and falls through to step 3/4/5, per spec.md §4.4.
	for j := range newFields {
		if newUsed[j] {
			continue
		}
		for i := range oldFields {
			if oldUsed[i] || oldFields[i].Name != newFields[j].Name {
				continue
			}
			if act, ok := planConvert(oldFields[i].Type, newFields[j].Type); ok {
				act.OldIndex = i
				actions[j] = act
				oldUsed[i] = true
				newUsed[j] = true
			}
			break
		}
	}

	// Step 3: renamed move — remaining fields matched by equal Type;
	// closest old-index to the new-index wins, ties broken by lower
	// index.
	for j := range newFields {
		if newUsed[j] {
			continue
		}
		best := -1
		for i := range oldFields {
			if oldUsed[i] || !typesEqual(oldFields[i].Type, newFields[j].Type) {
				continue
			}
			if best == -1 || closer(i, best, j) {
				best = i
			}
		}
		if best != -1 {
			actions[j] = FieldAction{Kind: ActionMove, OldIndex: best}
			oldUsed[best] = true
			newUsed[j] = true
		}
	}

	// Step 4: insertions — unpaired new fields are zero-initialized.
	for j := range newFields {
		if !newUsed[j] {
			actions[j] = FieldAction{Kind: ActionZero}
		}
	}
	// Step 5: deletions are implicit — any old field left unused is
	// simply never referenced by an action and is dropped on Apply.

	if old.Name != new.Name {
		for j, act := range actions {
			unchanged := act.Kind == ActionMove && oldFields[act.OldIndex].Name == newFields[j].Name
			if !unchanged {
				return nil, ErrRenameAndEdit
			}
		}
	}

	return &Mapping{Old: old, New: new, Actions: actions}, nil
}

func identityMapping(old, new *typeregistry.Type) *Mapping {
	actions := make([]FieldAction, len(new.Struct.Fields))
	for i := range actions {
		actions[i] = FieldAction{Kind: ActionMove, OldIndex: i}
	}
	return &Mapping{Old: old, New: new, Actions: actions}
}

// closer reports whether candidate i is a better step-3 match for new
// index j than the current best, under "closest index wins, ties to the
// lower index".
func closer(i, best, j int) bool {
	di, db := absDiff(i, j), absDiff(best, j)
	return di < db || (di == db && i < best)
}

// typesEqual compares by structural identity, not Go pointer identity:
// Plan's old and new types are normally resolved against two different
// registries (the live one and the reload's candidate one, per spec.md
// §4.7's "install candidate registry"), so even a field whose type
// didn't change at all will not be the same *typeregistry.Type pointer
// across the two.
//
// A Guid alone is not enough for a struct-kind field: the same Guid can
// carry a different shape across a reload, which is exactly the case
// Plan exists to detect, so two struct-kind fields only count as
// unchanged if their full shape (fingerprint) still matches — except
// for a Gc-kind (reference) field, where only the Guid and memory kind
// need to agree, because the pointed-to object is migrated
// independently by its own type's Mapping regardless of whether this
// field counts as "moved" or "renamed" here.
func typesEqual(a, b *typeregistry.Type) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case typeregistry.KindStruct:
		if a.Struct.Guid != b.Struct.Guid || a.Struct.MemoryKind != b.Struct.MemoryKind {
			return false
		}
		if a.Struct.MemoryKind == abi.Gc {
			return true
		}
		return fingerprint(a) == fingerprint(b)
	case typeregistry.KindPointer:
		return a.Pointer.Mutable == b.Pointer.Mutable && typesEqual(a.Pointer.Pointee, b.Pointer.Pointee)
	case typeregistry.KindArray:
		return typesEqual(a.Array.Element, b.Array.Element)
	default:
		return a.ID() == b.ID()
	}
}

func absDiff(a, b int) int {
	if a < b {
		return b - a
	}
	return a - b
}

// planConvert decides how a same-named field pair whose Types differ is
// migrated: a primitive widening conversion, a recursive embedded-struct
// mapping (including a value<->gc box/unbox), or — if neither applies —
// "not convertible", signalling the caller to leave the pair unpaired.
func planConvert(oldType, newType *typeregistry.Type) (FieldAction, bool) {
	if oldType.Kind == typeregistry.KindPrimitive && newType.Kind == typeregistry.KindPrimitive {
		if !primitiveConvertible(oldType.Primitive, newType.Primitive) {
			return FieldAction{}, false
		}
		return FieldAction{Kind: ActionConvertPrimitive, NewPrimitive: newType.Primitive}, true
	}

	if oldType.Kind == typeregistry.KindStruct && newType.Kind == typeregistry.KindStruct &&
		oldType.Struct.Guid == newType.Struct.Guid {
		oldGc := oldType.Struct.MemoryKind == abi.Gc
		newGc := newType.Struct.MemoryKind == abi.Gc

		if oldGc && newGc {
			// Both sides are references; the pointed-to object is
			// migrated independently by its own type's Mapping, so this
			// field slot is a plain handle move.
			return FieldAction{Kind: ActionMove}, true
		}

		sub, err := Plan(oldType, newType)
		if err != nil {
			return FieldAction{}, false
		}
		return FieldAction{Kind: ActionConvertEmbedded, SubMapping: sub, OldGc: oldGc, NewGc: newGc}, true
	}

	return FieldAction{}, false
}

// primitiveConvertible implements spec.md §4.4a: widening within or
// across signedness is allowed, float widening is allowed, bool never
// converts, and narrowing/float<->int are rejected.
func primitiveConvertible(old, new abi.PrimitiveKind) bool {
	if old == abi.PrimitiveBool || new == abi.PrimitiveBool {
		return false
	}
	if old.IsFloat() != new.IsFloat() {
		return false
	}
	return new.SizeBits() > old.SizeBits()
}
