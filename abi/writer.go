package abi

import "encoding/binary"

// builder accumulates a little-endian ABI blob. It is the write-side
// counterpart of cursor, used by Encode to construct assemblies without
// a real compiler backend.
type builder struct {
	buf []byte
}

func (b *builder) u8(v uint8) {
	b.buf = append(b.buf, v)
}

func (b *builder) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *builder) str(s string) {
	b.u32(uint32(len(s)))
	b.buf = append(b.buf, s...)
}

func (b *builder) guid(g Guid) {
	b.buf = append(b.buf, g[:]...)
}

func (b *builder) typeID(t TypeID) {
	b.u8(uint8(t.Kind))
	switch t.Kind {
	case KindConcrete:
		b.guid(t.Concrete)
	case KindPointer:
		if t.Mutable {
			b.u8(1)
		} else {
			b.u8(0)
		}
		b.typeID(*t.Pointee)
	case KindArray:
		b.typeID(*t.Element)
	}
}

func (b *builder) prototype(p FunctionPrototype) {
	b.str(p.Name)
	b.u32(uint32(len(p.ArgTypes)))
	for _, a := range p.ArgTypes {
		b.typeID(a)
	}
	b.typeID(p.ReturnType)
}

// Encode serializes an AssemblyInfo's descriptors into the wire format
// Read parses. FunctionDef.Impl values are never serialized — they are
// not part of the ABI blob, they are the compiled machine code itself,
// which this runtime never synthesizes from bytes (see NativeFunc).
func Encode(info *AssemblyInfo) []byte {
	b := &builder{}
	version := info.Version
	if version == 0 {
		version = Version
	}
	b.u32(version)
	b.str(info.Module.Path)

	b.u32(uint32(len(info.Module.Functions)))
	for _, fn := range info.Module.Functions {
		b.prototype(fn.Prototype)
	}

	b.u32(uint32(len(info.Module.Types)))
	for _, t := range info.Module.Types {
		b.guid(t.Guid)
		b.str(t.Name)
		b.u8(uint8(t.MemoryKind))
		b.u32(t.SizeBits)
		b.u32(uint32(len(t.Fields)))
		for _, f := range t.Fields {
			b.str(f.Name)
			b.typeID(f.Type)
			b.u32(f.OffsetHint)
		}
	}

	b.u32(uint32(len(info.Dispatch)))
	for _, d := range info.Dispatch {
		b.prototype(d.Prototype)
	}

	b.u32(uint32(len(info.TypeLUT)))
	for _, l := range info.TypeLUT {
		b.typeID(l.TypeID)
		b.str(l.DebugName)
	}

	b.u32(uint32(len(info.Dependencies)))
	for _, d := range info.Dependencies {
		b.str(d)
	}

	return b.buf
}
