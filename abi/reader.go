package abi

import (
	"encoding/binary"
	"fmt"
)

// cursor is a bounds-checked reader over an ABI blob, in the same spirit
// as helper.go's ReadUint32/ReadUint16/ReadString family: every read is a
// small function that validates the offset against the blob length before
// touching it, so a fuzzed or truncated blob never panics.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) u8() (uint8, error) {
	if c.off+1 > len(c.data) {
		return 0, ErrTruncated
	}
	v := c.data[c.off]
	c.off++
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.off+4 > len(c.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.off+n > len(c.data) {
		return nil, ErrTruncated
	}
	v := c.data[c.off : c.off+n]
	c.off += n
	return v, nil
}

func (c *cursor) str() (string, error) {
	n, err := c.u32()
	if err != nil {
		return "", err
	}
	b, err := c.bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) guid() (Guid, error) {
	b, err := c.bytes(16)
	if err != nil {
		return Guid{}, err
	}
	var g Guid
	copy(g[:], b)
	return g, nil
}

func (c *cursor) typeID() (TypeID, error) {
	kind, err := c.u8()
	if err != nil {
		return TypeID{}, err
	}
	switch TypeIDKind(kind) {
	case KindConcrete:
		g, err := c.guid()
		if err != nil {
			return TypeID{}, err
		}
		return Concrete(g), nil
	case KindPointer:
		mut, err := c.u8()
		if err != nil {
			return TypeID{}, err
		}
		pointee, err := c.typeID()
		if err != nil {
			return TypeID{}, err
		}
		return Pointer(pointee, mut != 0), nil
	case KindArray:
		element, err := c.typeID()
		if err != nil {
			return TypeID{}, err
		}
		return Array(element), nil
	default:
		return TypeID{}, fmt.Errorf("%w: unknown TypeId kind %d", ErrMalformed, kind)
	}
}

func (c *cursor) prototype() (FunctionPrototype, error) {
	name, err := c.str()
	if err != nil {
		return FunctionPrototype{}, err
	}
	n, err := c.u32()
	if err != nil {
		return FunctionPrototype{}, err
	}
	args := make([]TypeID, n)
	for i := range args {
		args[i], err = c.typeID()
		if err != nil {
			return FunctionPrototype{}, err
		}
	}
	ret, err := c.typeID()
	if err != nil {
		return FunctionPrototype{}, err
	}
	return FunctionPrototype{Name: name, ArgTypes: args, ReturnType: ret}, nil
}

// Read parses a memory-mapped or embedded ABI blob into an AssemblyInfo
// tree (spec.md §4.1). The ABI version is checked first; a mismatch is a
// fatal load error. FunctionDef.Impl is always nil after Read, since the
// compiled machine code itself is outside this runtime's scope;
// assembly.Load does not fill it in either.
func Read(data []byte) (*AssemblyInfo, error) {
	c := &cursor{data: data}

	version, err := c.u32()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: blob has version %d, runtime expects %d",
			ErrABIVersionMismatch, version, Version)
	}

	path, err := c.str()
	if err != nil {
		return nil, err
	}

	numFn, err := c.u32()
	if err != nil {
		return nil, err
	}
	functions := make([]FunctionDef, numFn)
	for i := range functions {
		proto, err := c.prototype()
		if err != nil {
			return nil, err
		}
		functions[i] = FunctionDef{Prototype: proto}
	}

	numTy, err := c.u32()
	if err != nil {
		return nil, err
	}
	types := make([]StructDefinition, numTy)
	for i := range types {
		g, err := c.guid()
		if err != nil {
			return nil, err
		}
		name, err := c.str()
		if err != nil {
			return nil, err
		}
		mk, err := c.u8()
		if err != nil {
			return nil, err
		}
		sizeBits, err := c.u32()
		if err != nil {
			return nil, err
		}
		numFields, err := c.u32()
		if err != nil {
			return nil, err
		}
		fields := make([]FieldDef, numFields)
		for j := range fields {
			fname, err := c.str()
			if err != nil {
				return nil, err
			}
			ftype, err := c.typeID()
			if err != nil {
				return nil, err
			}
			offHint, err := c.u32()
			if err != nil {
				return nil, err
			}
			fields[j] = FieldDef{Name: fname, Type: ftype, OffsetHint: offHint}
		}
		types[i] = StructDefinition{
			Guid: g, Name: name, MemoryKind: MemoryKind(mk),
			Fields: fields, SizeBits: sizeBits,
		}
	}

	numDispatch, err := c.u32()
	if err != nil {
		return nil, err
	}
	dispatch := make([]DispatchDescriptor, numDispatch)
	for i := range dispatch {
		proto, err := c.prototype()
		if err != nil {
			return nil, err
		}
		dispatch[i] = DispatchDescriptor{Prototype: proto}
	}

	numLUT, err := c.u32()
	if err != nil {
		return nil, err
	}
	lut := make([]TypeLUTDescriptor, numLUT)
	for i := range lut {
		tid, err := c.typeID()
		if err != nil {
			return nil, err
		}
		dn, err := c.str()
		if err != nil {
			return nil, err
		}
		lut[i] = TypeLUTDescriptor{TypeID: tid, DebugName: dn}
	}

	numDeps, err := c.u32()
	if err != nil {
		return nil, err
	}
	deps := make([]string, numDeps)
	for i := range deps {
		deps[i], err = c.str()
		if err != nil {
			return nil, err
		}
	}

	return &AssemblyInfo{
		Version:      version,
		Module:       ModuleInfo{Path: path, Functions: functions, Types: types},
		Dispatch:     dispatch,
		TypeLUT:      lut,
		Dependencies: deps,
	}, nil
}
