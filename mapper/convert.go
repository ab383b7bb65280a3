package mapper

import "github.com/mun-lang/mun-runtime/abi"

// convertPrimitiveValue widens v (a native Go value matching the field's
// old PrimitiveKind) to newKind, per the conversion rules already
// validated by primitiveConvertible at plan time: same signedness family
// or across it (sign preserved via a signed intermediate), float
// widening exact.
func convertPrimitiveValue(v any, newKind abi.PrimitiveKind) any {
	if newKind.IsFloat() {
		return toFloat64AsKind(toFloat64(v), newKind)
	}
	if newKind.IsSigned() {
		return toSignedAsKind(toInt64(v), newKind)
	}
	return toUnsignedAsKind(toUint64(v), newKind)
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	default:
		return 0
	}
}

func toUint64(v any) uint64 {
	switch x := v.(type) {
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case int8:
		return uint64(int64(x))
	case int16:
		return uint64(int64(x))
	case int32:
		return uint64(int64(x))
	case int64:
		return uint64(x)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

func toSignedAsKind(v int64, kind abi.PrimitiveKind) any {
	switch kind {
	case abi.PrimitiveI16:
		return int16(v)
	case abi.PrimitiveI32:
		return int32(v)
	case abi.PrimitiveI64:
		return v
	default:
		return v
	}
}

func toUnsignedAsKind(v uint64, kind abi.PrimitiveKind) any {
	switch kind {
	case abi.PrimitiveU16:
		return uint16(v)
	case abi.PrimitiveU32:
		return uint32(v)
	case abi.PrimitiveU64:
		return v
	default:
		return v
	}
}

func toFloat64AsKind(v float64, kind abi.PrimitiveKind) any {
	if kind == abi.PrimitiveF32 {
		return float32(v)
	}
	return v
}
