package typeregistry

import "github.com/mun-lang/mun-runtime/abi"

// primitiveName returns the canonical Mun spelling of a primitive kind,
// used both as its Type.Name and as the seed for its well-known Guid.
func primitiveName(kind abi.PrimitiveKind) string {
	switch kind {
	case abi.PrimitiveBool:
		return "core::bool"
	case abi.PrimitiveI8:
		return "core::i8"
	case abi.PrimitiveI16:
		return "core::i16"
	case abi.PrimitiveI32:
		return "core::i32"
	case abi.PrimitiveI64:
		return "core::i64"
	case abi.PrimitiveU8:
		return "core::u8"
	case abi.PrimitiveU16:
		return "core::u16"
	case abi.PrimitiveU32:
		return "core::u32"
	case abi.PrimitiveU64:
		return "core::u64"
	case abi.PrimitiveF32:
		return "core::f32"
	case abi.PrimitiveF64:
		return "core::f64"
	default:
		return "core::unknown"
	}
}

// primitiveGuid derives a primitive's well-known Guid from its canonical
// name, the same rule every other type's Guid follows.
func primitiveGuid(kind abi.PrimitiveKind) abi.Guid {
	return abi.GuidFromName(CanonicalName("", primitiveName(kind)))
}

// allPrimitiveKinds enumerates every PrimitiveKind, used to build the
// Guid-to-kind reverse index below.
var allPrimitiveKinds = []abi.PrimitiveKind{
	abi.PrimitiveBool,
	abi.PrimitiveI8, abi.PrimitiveI16, abi.PrimitiveI32, abi.PrimitiveI64,
	abi.PrimitiveU8, abi.PrimitiveU16, abi.PrimitiveU32, abi.PrimitiveU64,
	abi.PrimitiveF32, abi.PrimitiveF64,
}

// PrimitiveKindForGuid reverses primitiveGuid: the wire format has no
// separate "this TypeId names a primitive" tag (spec.md §6.1's TypeId is
// Concrete | Pointer | Array only), so a loader resolving a Concrete
// TypeID has to check it against every well-known primitive Guid before
// assuming it names a user-defined struct.
func PrimitiveKindForGuid(g abi.Guid) (abi.PrimitiveKind, bool) {
	for _, k := range allPrimitiveKinds {
		if primitiveGuid(k) == g {
			return k, true
		}
	}
	return 0, false
}
