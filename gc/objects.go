package gc

import "github.com/mun-lang/mun-runtime/typeregistry"

// ObjectsOfType returns a handle to every live object whose current type
// is exactly t (pointer identity, spec.md Invariant 1: at most one live
// Type exists for a given shape). This is how the Memory Mapper finds
// every instance of a type that changed shape across a reload, without
// the host having to track its own list of live references.
func (h *Heap) ObjectsOfType(t *typeregistry.Type) []*Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*Handle
	for _, o := range h.objects {
		if o.rec != nil && o.rec.typ == t {
			out = append(out, &Handle{o: o})
		}
	}
	return out
}

// Remap replaces h's field data in place with newFields typed as
// newType: every other Handle aliasing the same object observes the new
// shape immediately, while h's own identity (the outer pointer spec.md's
// GcHandle invariant requires to stay fixed) never changes. This is how
// the Memory Mapper "swaps the indirection cell" and "retypes the object
// header" (spec.md §4.4's Application step) without forcing every host
// reference to be re-resolved.
func (h *Handle) Remap(newType *typeregistry.Type, newFields []any) error {
	if h == nil || h.o == nil || h.o.freed {
		return ErrHandleFreed
	}
	h.o.rec = &record{typ: newType, fields: newFields}
	return nil
}
