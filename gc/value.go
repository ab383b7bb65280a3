package gc

import (
	"fmt"

	"github.com/mun-lang/mun-runtime/typeregistry"
)

// Value is an embedded (non-heap) struct instance: the contents of a
// Value-kind struct field, addressable the same way a Handle addresses a
// heap object, but with no indirection cell and no GC lifecycle of its
// own — it lives exactly wherever its containing record or array slot
// put it, and is copied by value when its container is.
type Value struct {
	r *record
}

// NewValue allocates a zero-initialized embedded struct instance of t.
// t must be a Value-kind struct type.
func NewValue(t *typeregistry.Type) *Value {
	return &Value{r: newRecord(t)}
}

// Type returns v's type.
func (v *Value) Type() *typeregistry.Type {
	if v == nil || v.r == nil {
		return nil
	}
	return v.r.typ
}

// Field reads the current value of a named field.
func (v *Value) Field(name string) (any, error) {
	if v == nil || v.r == nil {
		return nil, fmt.Errorf("gc: nil value")
	}
	i, ok := v.r.fieldIndex(name)
	if !ok {
		return nil, fmt.Errorf("gc: no field %q on type %s", name, v.r.typ.Name)
	}
	return v.r.fields[i], nil
}

// SetField writes a named field in place.
func (v *Value) SetField(name string, value any) error {
	if v == nil || v.r == nil {
		return fmt.Errorf("gc: nil value")
	}
	i, ok := v.r.fieldIndex(name)
	if !ok {
		return fmt.Errorf("gc: no field %q on type %s", name, v.r.typ.Name)
	}
	v.r.fields[i] = value
	return nil
}
