package abi

import "github.com/google/uuid"

// Guid is a 16-byte globally unique identifier for a concrete type,
// produced by hashing the type's fully qualified structural name.
// It is stable across assemblies and compilations as long as the name
// is stable (spec.md §3, §9 "Name-to-Guid hashing").
type Guid [16]byte

// typeNamespace is the fixed UUID namespace every type GUID is derived
// from. Using a name-based UUID (RFC 4122 §4.3) rather than a random one
// is what makes Guid deterministic: the same canonical name always hashes
// to the same Guid, in the same process or a different one.
var typeNamespace = uuid.MustParse("6f9c2b2e-6e8b-4a1e-9f3b-2a7b1e6d2c4a")

// GuidFromName computes the Guid for a type's canonical structural name.
// Callers should pass the output of CanonicalName, not a raw source name.
func GuidFromName(canonicalName string) Guid {
	u := uuid.NewSHA1(typeNamespace, []byte(canonicalName))
	var g Guid
	copy(g[:], u[:])
	return g
}

// IsZero reports whether g is the zero Guid (never a valid type identity).
func (g Guid) IsZero() bool {
	return g == Guid{}
}

func (g Guid) String() string {
	u, _ := uuid.FromBytes(g[:])
	return u.String()
}
