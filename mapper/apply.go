package mapper

import (
	"fmt"

	"github.com/mun-lang/mun-runtime/gc"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// Apply migrates every live object of mapping.Old to mapping.New
// (spec.md §4.4's Application step): for each, it builds a new field
// set, executes the planned action per field, zero-fills insertions,
// then swaps it onto the existing object — the object's Handle identity
// never changes, only what it points at.
func Apply(heap *gc.Heap, mapping *Mapping) error {
	for _, h := range heap.ObjectsOfType(mapping.Old) {
		fields, err := migrateFields(heap, h, mapping)
		if err != nil {
			return err
		}
		if err := h.Remap(mapping.New, fields); err != nil {
			return err
		}
	}
	return nil
}

// fieldReader abstracts "read a named field of the old value", since
// the source of an embedded conversion is sometimes a heap Handle and
// sometimes a bare Value.
type fieldReader interface {
	Field(name string) (any, error)
}

// migrateFields executes mapping's per-field actions against src (the
// old record or value), returning the converted values in New's field
// order.
func migrateFields(heap *gc.Heap, src fieldReader, mapping *Mapping) ([]any, error) {
	newFields := mapping.New.Struct.Fields
	out := make([]any, len(mapping.Actions))

	for j, act := range mapping.Actions {
		v, err := resolveAction(heap, src, mapping, newFields[j], act)
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}

func resolveAction(heap *gc.Heap, src fieldReader, mapping *Mapping, newField typeregistry.Field, act FieldAction) (any, error) {
	switch act.Kind {
	case ActionZero:
		return gc.ZeroValue(newField.Type), nil

	case ActionMove:
		return src.Field(mapping.Old.Struct.Fields[act.OldIndex].Name)

	case ActionConvertPrimitive:
		v, err := src.Field(mapping.Old.Struct.Fields[act.OldIndex].Name)
		if err != nil {
			return nil, err
		}
		return convertPrimitiveValue(v, act.NewPrimitive), nil

	case ActionConvertEmbedded:
		v, err := src.Field(mapping.Old.Struct.Fields[act.OldIndex].Name)
		if err != nil {
			return nil, err
		}
		return convertEmbedded(heap, v, act)

	default:
		return nil, fmt.Errorf("mapper: unknown action kind %d", act.Kind)
	}
}

// convertEmbedded migrates one embedded-struct field value (old) across
// act.SubMapping, boxing or unboxing first if the field's memory kind
// changed (spec.md §4.4: "If its memory_kind differs (value <-> gc), the
// object is converted").
func convertEmbedded(heap *gc.Heap, old any, act FieldAction) (any, error) {
	switch {
	case !act.OldGc && !act.NewGc:
		oldValue, _ := old.(*gc.Value)
		if oldValue == nil {
			return gc.ZeroValue(act.SubMapping.New), nil
		}
		fields, err := migrateFields(heap, oldValue, act.SubMapping)
		if err != nil {
			return nil, err
		}
		return buildValue(act.SubMapping.New, fields)

	case act.OldGc && act.NewGc:
		// Both references; the pointee migrates independently via its
		// own type's Mapping (see planConvert in plan.go). Nothing
		// local to do.
		return old, nil

	case !act.OldGc && act.NewGc:
		// Value -> Gc: box into a new heap object.
		oldValue, _ := old.(*gc.Value)
		handle, err := heap.Alloc(act.SubMapping.New)
		if err != nil {
			return nil, err
		}
		if oldValue == nil {
			return handle, nil
		}
		fields, err := migrateFields(heap, oldValue, act.SubMapping)
		if err != nil {
			return nil, err
		}
		if err := fillHandle(handle, act.SubMapping.New, fields); err != nil {
			return nil, err
		}
		return handle, nil

	default:
		// Gc -> Value: unbox. A nil handle (already-freed or never-set
		// reference) unboxes to a zeroed value.
		oldHandle, _ := old.(*gc.Handle)
		if oldHandle == nil {
			return gc.ZeroValue(act.SubMapping.New), nil
		}
		fields, err := migrateFields(heap, oldHandle, act.SubMapping)
		if err != nil {
			return nil, err
		}
		return buildValue(act.SubMapping.New, fields)
	}
}

func buildValue(t *typeregistry.Type, fields []any) (*gc.Value, error) {
	v := gc.NewValue(t)
	for i, f := range t.Struct.Fields {
		if err := v.SetField(f.Name, fields[i]); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func fillHandle(h *gc.Handle, t *typeregistry.Type, fields []any) error {
	for i, f := range t.Struct.Fields {
		if err := h.SetField(f.Name, fields[i]); err != nil {
			return err
		}
	}
	return nil
}
