package gc

import (
	"errors"
	"fmt"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// ErrArrayFixedCapacity is returned by any attempt to grow or shrink an
// array. spec.md §9's open question resolves arrays as a fixed-capacity
// length+capacity header followed by elements: indexed read/write and
// iteration are supported, grow/shrink are not, because the compiler
// front end this runtime pairs with never emits them (spec.md §9).
var ErrArrayFixedCapacity = errors.New("gc: arrays have fixed capacity, grow/shrink unsupported")

// ErrArrayIndexOutOfRange reports an out-of-bounds array access.
var ErrArrayIndexOutOfRange = errors.New("gc: array index out of range")

// arrayPayload is the length+capacity header plus elements, at the
// element type's alignment, that spec.md §9 describes — alignment in
// this Go representation is implicit (each slot is a full Go value, not
// packed bytes), but length and capacity are tracked explicitly and
// capacity is fixed at allocation time.
type arrayPayload struct {
	elemType *typeregistry.Type
	length   int
	elems    []any // len(elems) == capacity, always
}

// AllocArray allocates a fixed-capacity array of elemType with the given
// length (== its capacity; spec.md's arrays do not grow). Each element is
// zero-initialized per elemType's kind.
func (h *Heap) AllocArray(elemType *typeregistry.Type, length int) (*Handle, error) {
	if elemType == nil {
		return nil, fmt.Errorf("gc: alloc array of nil element type")
	}
	if length < 0 {
		return nil, fmt.Errorf("gc: negative array length")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	elems := make([]any, length)
	for i := range elems {
		elems[i] = zeroValue(elemType)
	}

	obj := &object{arr: &arrayPayload{elemType: elemType, length: length, elems: elems}}
	h.objects = append(h.objects, obj)
	return &Handle{o: obj}, nil
}

// ArrayLen returns an array handle's length.
func (h *Handle) ArrayLen() (int, error) {
	if h == nil || h.o == nil || h.o.freed {
		return 0, ErrHandleFreed
	}
	if h.o.arr == nil {
		return 0, fmt.Errorf("gc: handle does not reference an array")
	}
	return h.o.arr.length, nil
}

// ArrayGet reads element i of an array handle.
func (h *Handle) ArrayGet(i int) (any, error) {
	if h == nil || h.o == nil || h.o.freed {
		return nil, ErrHandleFreed
	}
	if h.o.arr == nil {
		return nil, fmt.Errorf("gc: handle does not reference an array")
	}
	if i < 0 || i >= h.o.arr.length {
		return nil, ErrArrayIndexOutOfRange
	}
	return h.o.arr.elems[i], nil
}

// ArraySet writes element i of an array handle.
func (h *Handle) ArraySet(i int, value any) error {
	if h == nil || h.o == nil || h.o.freed {
		return ErrHandleFreed
	}
	if h.o.arr == nil {
		return fmt.Errorf("gc: handle does not reference an array")
	}
	if i < 0 || i >= h.o.arr.length {
		return ErrArrayIndexOutOfRange
	}
	h.o.arr.elems[i] = value
	return nil
}

// Grow always fails — see ErrArrayFixedCapacity.
func (h *Handle) Grow(int) error { return ErrArrayFixedCapacity }

// Shrink always fails — see ErrArrayFixedCapacity.
func (h *Handle) Shrink(int) error { return ErrArrayFixedCapacity }

func markArray(a *arrayPayload) {
	if a == nil {
		return
	}
	isRef := a.elemType.IsReference()
	isValueStruct := a.elemType.Kind == typeregistry.KindStruct && a.elemType.Struct.MemoryKind == abi.Value
	for _, v := range a.elems {
		switch {
		case isRef:
			if handle, ok := v.(*Handle); ok && handle != nil {
				markObject(handle.o)
			}
		case isValueStruct:
			if nested, ok := v.(*Value); ok {
				markRecord(nested.r)
			}
		}
	}
}
