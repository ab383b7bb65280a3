// Package gc implements the mark-and-sweep allocator described in
// spec.md §4.3: managed objects are allocated behind an indirection
// handle, rooted explicitly, and reclaimed by an in-line collection
// cycle invoked only at well-defined points (never preemptively, since
// generated code is never interrupted — spec.md §5).
package gc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// ErrAllocNonStruct is returned by Alloc when asked to allocate something
// other than a struct type — spec.md §7's RuntimeInvariantError example
// "alloc of non-struct type".
var ErrAllocNonStruct = errors.New("gc: alloc of non-struct type")

// ErrUnrootWithoutRoot is returned by Unroot when a handle's root count is
// already zero — spec.md §7's RuntimeInvariantError example "unroot
// without root".
var ErrUnrootWithoutRoot = errors.New("gc: unroot without a matching root")

// Heap is the allocator and collector. It is owned exclusively by a
// single Runtime (spec.md §5); nothing in this package is safe to call
// from more than one goroutine concurrently, matching the single-threaded
// cooperative model the whole runtime follows.
type Heap struct {
	mu      sync.Mutex
	objects []*object
}

// NewHeap creates an empty heap. sizeHint is advisory (spec.md §6.3
// initial_heap_size_hint) and only pre-sizes the allocation slice.
func NewHeap(sizeHint int) *Heap {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Heap{objects: make([]*object, 0, sizeHint)}
}

// Alloc allocates a zero-initialized instance of t and returns a handle
// to it (spec.md §4.3). t must be a Gc-kind struct type — allocating a
// Value-kind struct, a primitive, a pointer, or an array directly is a
// host bug (arrays are allocated through AllocArray, see array.go).
func (h *Heap) Alloc(t *typeregistry.Type) (*Handle, error) {
	if t == nil || t.Kind != typeregistry.KindStruct {
		return nil, ErrAllocNonStruct
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	obj := &object{rec: newRecord(t)}
	h.objects = append(h.objects, obj)
	return &Handle{o: obj}, nil
}

// Root increments h's root count. Roots may be added multiple times and
// must be balanced with Unroot (spec.md §4.3).
func (h *Heap) Root(handle *Handle) error {
	if handle == nil || handle.o == nil {
		return fmt.Errorf("gc: root of nil handle")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if handle.o.freed {
		return ErrHandleFreed
	}
	handle.o.roots++
	return nil
}

// Unroot decrements h's root count.
func (h *Heap) Unroot(handle *Handle) error {
	if handle == nil || handle.o == nil {
		return fmt.Errorf("gc: unroot of nil handle")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if handle.o.freed {
		return ErrHandleFreed
	}
	if handle.o.roots <= 0 {
		return ErrUnrootWithoutRoot
	}
	handle.o.roots--
	return nil
}

// Collect runs a full mark-and-sweep cycle and reports whether any memory
// was reclaimed (spec.md §4.3).
func (h *Heap) Collect() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, o := range h.objects {
		o.marked = false
	}
	for _, o := range h.objects {
		if o.roots > 0 {
			markObject(o)
		}
	}

	reclaimed := false
	kept := h.objects[:0]
	for _, o := range h.objects {
		if o.marked {
			kept = append(kept, o)
		} else {
			o.freed = true
			o.rec = nil
			o.arr = nil
			reclaimed = true
		}
	}
	h.objects = kept
	return reclaimed
}

// Live reports the number of currently-live (unswept) allocations. Mainly
// useful to tests.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// markObject marks o and recursively marks everything reachable from it.
func markObject(o *object) {
	if o == nil || o.marked {
		return
	}
	o.marked = true
	markRecord(o.rec)
	markArray(o.arr)
}

// markRecord walks every field of r: reference fields (Gc struct, Pointer,
// Array) are followed through their handle and marked, Value-kind struct
// fields are walked in place, primitive fields are ignored — spec.md
// §4.3's mark algorithm, verbatim.
func markRecord(r *record) {
	if r == nil {
		return
	}
	for i, f := range r.typ.Struct.Fields {
		switch {
		// An array field's own Handle is always followed, regardless of
		// what it holds: IsReference only tells us about its elements,
		// but the array object itself is reachable through this field
		// either way, and markArray (via markObject) decides from there
		// whether to recurse into reference or value elements.
		case f.Type.Kind == typeregistry.KindArray, f.Type.IsReference():
			if handle, ok := r.fields[i].(*Handle); ok && handle != nil {
				markObject(handle.o)
			}
		case f.Type.Kind == typeregistry.KindStruct && f.Type.Struct.MemoryKind == abi.Value:
			if nested, ok := r.fields[i].(*Value); ok {
				markRecord(nested.r)
			}
		}
	}
}
