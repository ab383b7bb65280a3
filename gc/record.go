package gc

import (
	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// record is the in-memory representation of one instance of a struct
// type: one slot per field, in declaration order. A record is shared by
// both heap-allocated objects (wrapped in an object, reachable through a
// Handle) and embedded Value-kind fields (held directly, nested inside
// their containing record).
//
// A field's slot holds, depending on the field's type:
//   - a native Go value (bool/intN/uintN/float32/float64) for a primitive
//   - a *Handle for a Gc struct, a Pointer, or an Array field (all three
//     are reference/indirection fields, spec.md §4.3)
//   - a *Value for an embedded Value-kind struct field
//
// Go slices aren't scanned the way this runtime's own mark phase scans
// a record — field values here are plain Go values kept alive by normal
// Go reachability in addition to this runtime's bookkeeping, so nothing
// about Go's own GC needs to cooperate with the mark-and-sweep in heap.go;
// that pass exists purely to implement spec.md's rooted-liveness model
// (an object can be Go-reachable through heap.objects yet unrooted, and
// this runtime must still reclaim it on the next Collect()).
type record struct {
	typ    *typeregistry.Type
	fields []any
}

func newRecord(t *typeregistry.Type) *record {
	fields := make([]any, len(t.Struct.Fields))
	for i, f := range t.Struct.Fields {
		fields[i] = zeroValue(f.Type)
	}
	return &record{typ: t, fields: fields}
}

// zeroValue returns the zero representation for a field of type ft,
// matching the kind-to-slot-representation rule documented on record.
func zeroValue(ft *typeregistry.Type) any {
	switch ft.Kind {
	case typeregistry.KindPrimitive:
		return zeroPrimitive(ft)
	case typeregistry.KindStruct:
		if ft.Struct.MemoryKind == abi.Gc {
			return (*Handle)(nil)
		}
		return NewValue(ft)
	case typeregistry.KindPointer, typeregistry.KindArray:
		return (*Handle)(nil)
	default:
		return nil
	}
}

// ZeroValue returns the zero representation for a field of type ft. The
// Memory Mapper uses this to populate inserted fields (spec.md §4.4 step
// 4) without duplicating this package's kind-to-slot-representation
// rule.
func ZeroValue(ft *typeregistry.Type) any {
	return zeroValue(ft)
}

func (r *record) fieldIndex(name string) (int, bool) {
	for i, f := range r.typ.Struct.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}
