package gc

import "github.com/mun-lang/mun-runtime/typeregistry"

// zeroPrimitive returns the Go zero value for a primitive field,
// represented in the native Go type its PrimitiveKind corresponds to.
func zeroPrimitive(ft *typeregistry.Type) any {
	switch ft.Primitive.SizeBits() {
	case 8:
		if ft.Primitive.IsUnsigned() {
			return uint8(0)
		}
		if ft.Primitive.IsSigned() {
			return int8(0)
		}
		return false // bool
	case 16:
		if ft.Primitive.IsUnsigned() {
			return uint16(0)
		}
		return int16(0)
	case 32:
		if ft.Primitive.IsFloat() {
			return float32(0)
		}
		if ft.Primitive.IsUnsigned() {
			return uint32(0)
		}
		return int32(0)
	case 64:
		if ft.Primitive.IsFloat() {
			return float64(0)
		}
		if ft.Primitive.IsUnsigned() {
			return uint64(0)
		}
		return int64(0)
	default:
		return nil
	}
}
