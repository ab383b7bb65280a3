package gc

import (
	"fmt"

	"github.com/mun-lang/mun-runtime/typeregistry"
)

// object is one heap allocation: a record plus the GC's own bookkeeping.
// A Handle's outer pointer is the *object pointer itself — Go never
// relocates a heap allocation out from under a live pointer to it, which
// is exactly spec.md Invariant 2's "the outer pointer does not move"
// guarantee, gotten for free from the host language. The *inner* state
// (typ, fields) is what the Memory Mapper rewrites in place on a schema
// change, which is the "inner pointer may change freely" half of the same
// invariant.
type object struct {
	rec    *record       // non-nil when the object is a struct instance
	arr    *arrayPayload // non-nil when the object is an array instance
	marked bool
	roots  int32
	freed  bool
}

// Handle is a pinned-in-memory reference to a GC-managed object
// (spec.md §3, GcHandle). External callers hold the Handle; the object it
// points at may be rewritten (retyped, reallocated-and-swapped by the
// Memory Mapper) without the Handle value itself changing.
type Handle struct {
	o *object
}

// ErrHandleFreed is returned by Handle operations performed against an
// object that has already been swept. Per spec.md §4.3, "dangling handles
// are detectable and return null on deref, but this condition is only
// reachable through API misuse" — a correctly-rooted program never hits
// this.
var ErrHandleFreed = fmt.Errorf("gc: handle use after object was freed")

// Type returns the handle's current type, or false if the object has
// been freed.
func (h *Handle) Type() (*typeregistry.Type, bool) {
	if h == nil || h.o == nil || h.o.freed || h.o.rec == nil {
		return nil, false
	}
	return h.o.rec.typ, true
}

// Field reads the current value of a named field.
func (h *Handle) Field(name string) (any, error) {
	if h == nil || h.o == nil || h.o.freed {
		return nil, ErrHandleFreed
	}
	if h.o.rec == nil {
		return nil, fmt.Errorf("gc: handle does not reference a struct")
	}
	i, ok := h.o.rec.fieldIndex(name)
	if !ok {
		return nil, fmt.Errorf("gc: no field %q on type %s", name, h.o.rec.typ.Name)
	}
	return h.o.rec.fields[i], nil
}

// SetField writes a named field in place. The caller is responsible for
// supplying a value representation matching the field's type (a native Go
// value for a primitive, a *Handle for a reference field, a *record-backed
// value built through this package for an embedded struct) — this mirrors
// the host-runtime API's "write into field offsets" contract (spec.md §5)
// without this runtime exposing raw memory to callers.
func (h *Handle) SetField(name string, value any) error {
	if h == nil || h.o == nil || h.o.freed {
		return ErrHandleFreed
	}
	if h.o.rec == nil {
		return fmt.Errorf("gc: handle does not reference a struct")
	}
	i, ok := h.o.rec.fieldIndex(name)
	if !ok {
		return fmt.Errorf("gc: no field %q on type %s", name, h.o.rec.typ.Name)
	}
	h.o.rec.fields[i] = value
	return nil
}

// Equal reports whether two handles reference the same underlying object
// — pointer identity on the outer Handle, the thing that stays stable
// across a collection or a reload (the testable property in spec.md §8:
// "the outer pointer h compares equal before and after the collection").
func (h *Handle) Equal(o *Handle) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.o == o.o
}
