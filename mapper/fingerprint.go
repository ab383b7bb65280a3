package mapper

import (
	"bytes"

	"github.com/cespare/xxhash/v2"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// fingerprint hashes a struct type's ordered (field name, field TypeID,
// field memory_kind) tuple list (spec.md §4.4: "Before running the full
// algorithm, Plan computes an xxhash.Sum64 fingerprint..."). Equal
// fingerprints short-circuit Plan to a trivial identity Mapping, and
// Apply does not re-check field names or types under that Mapping, so
// equal fingerprints are trusted as equal shapes. An embedded Value-kind
// struct field's own sub-schema is copied in-place rather than migrated
// through its own Mapping, so its shape is folded into the fingerprint
// recursively. A Gc-kind struct
// field stays keyed by Guid alone: its pointee migrates independently
// through its own type's Mapping regardless of what Outer's fingerprint
// says, so collapsing its shape in here would be redundant, not wrong.
func fingerprint(t *typeregistry.Type) uint64 {
	var buf bytes.Buffer
	writeFingerprint(&buf, t)
	return xxhash.Sum64(buf.Bytes())
}

func writeFingerprint(buf *bytes.Buffer, t *typeregistry.Type) {
	buf.WriteString(t.Name)
	buf.WriteByte(0)
	for _, f := range t.Struct.Fields {
		buf.WriteString(f.Name)
		buf.WriteByte(0)
		buf.WriteString(f.Type.ID())
		buf.WriteByte(0)
		if f.Type.Kind == typeregistry.KindStruct {
			buf.WriteByte(byte(f.Type.Struct.MemoryKind))
			if f.Type.Struct.MemoryKind == abi.Value {
				writeFingerprint(buf, f.Type)
			}
		}
		buf.WriteByte(0)
	}
}
