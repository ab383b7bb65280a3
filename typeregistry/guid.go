package typeregistry

import "strings"

// CanonicalName canonicalizes a type's fully qualified structural name
// before it is hashed into a Guid (spec.md §9: "two textually identical
// names in different modules must be canonicalized before hashing").
//
// Module path separators are normalized to "::", surrounding whitespace
// around each segment is trimmed, and the canonical form is lower-cased
// only for hashing purposes — Type.Name keeps the original casing, so two
// differently-cased spellings of the same declared name still collide
// (matching how the compiler's name resolution is case-sensitive at the
// token level but GUID stability only needs to survive whitespace/path
// formatting differences between compiler versions).
func CanonicalName(modulePath, typeName string) string {
	segments := strings.FieldsFunc(modulePath+"::"+typeName, func(r rune) bool {
		return r == '.' || r == '/' || r == '\\'
	})
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
	}
	joined := strings.Join(segments, "::")
	return strings.ToLower(joined)
}
