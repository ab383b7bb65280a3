package linker

import "fmt"

// ErrorKind discriminates a single unresolved slot in a LinkError.
type ErrorKind uint8

const (
	// MissingFunction: no host function or assembly export matched a
	// dispatch-table entry's name.
	MissingFunction ErrorKind = iota
	// DuplicateFunction: more than one host function or assembly export
	// matched a dispatch-table entry's name.
	DuplicateFunction
	// SignatureMismatch: a name matched exactly one candidate, but its
	// prototype (arg count, per-arg TypeId, return TypeId) disagreed.
	SignatureMismatch
	// MissingType: a type lookup table entry's TypeId did not resolve
	// through the Type Registry.
	MissingType
)

func (k ErrorKind) String() string {
	switch k {
	case MissingFunction:
		return "missing function"
	case DuplicateFunction:
		return "duplicate function"
	case SignatureMismatch:
		return "signature mismatch"
	case MissingType:
		return "missing type"
	default:
		return "unknown link error"
	}
}

// Entry names one unresolved slot.
type Entry struct {
	Kind ErrorKind
	Name string
}

// LinkError collects every unresolved slot found during one Link call.
// spec.md §4.5: "If any entry fails ... do not publish the assembly" — a
// non-empty LinkError means none of the assembly's tables were written.
type LinkError struct {
	Entries []Entry
}

func (e *LinkError) Error() string {
	if len(e.Entries) == 1 {
		return fmt.Sprintf("linker: %s: %s", e.Entries[0].Kind, e.Entries[0].Name)
	}
	return fmt.Sprintf("linker: %d unresolved slots (first: %s: %s)", len(e.Entries), e.Entries[0].Kind, e.Entries[0].Name)
}

func (e *LinkError) add(kind ErrorKind, name string) {
	e.Entries = append(e.Entries, Entry{Kind: kind, Name: name})
}
