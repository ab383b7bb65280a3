// Package runtime is the public, embeddable entry point of the module
// (spec.md §4.7): constructs a Runtime from a root assembly, exposes the
// host-runtime API (find_function, alloc/root/unroot/collect), and drives
// the hot-reload protocol from update().
package runtime

import (
	"errors"
	"fmt"
)

// LoadError wraps a failure encountered while loading an assembly file,
// either the root or one of its transitive dependencies (spec.md §7:
// "file missing, not a shared library, ABI-version mismatch, missing
// required symbol"). New returns one of these rather than a bare error
// so a host can report which file was at fault.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("runtime: failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// InvariantKind discriminates the bug category a RuntimeInvariantError
// reports (spec.md §7's three named examples).
type InvariantKind uint8

const (
	// HandleUseAfterFree: a Handle was used after its backing object was
	// swept.
	HandleUseAfterFree InvariantKind = iota
	// UnrootWithoutRoot: Unroot called more times than Root for a handle.
	UnrootWithoutRoot
	// AllocNonStruct: Alloc called with a non-struct Type.
	AllocNonStruct
)

func (k InvariantKind) String() string {
	switch k {
	case HandleUseAfterFree:
		return "handle used after drop"
	case UnrootWithoutRoot:
		return "unroot without root"
	case AllocNonStruct:
		return "alloc of non-struct type"
	default:
		return "runtime invariant violated"
	}
}

// RuntimeInvariantError reports a host-code bug (spec.md §7:
// "RuntimeInvariantError: handle used after drop, unroot without root,
// alloc of non-struct type — bugs in host code; surfaced and
// non-recoverable"). It wraps whichever package-level sentinel (gc's
// ErrHandleFreed, ErrUnrootWithoutRoot, ErrAllocNonStruct) actually
// triggered, so callers can still errors.Is against those if they want
// package-level detail.
type RuntimeInvariantError struct {
	Kind InvariantKind
	Err  error
}

func (e *RuntimeInvariantError) Error() string {
	return fmt.Sprintf("runtime: invariant violated (%s): %v", e.Kind, e.Err)
}

func (e *RuntimeInvariantError) Unwrap() error {
	return e.Err
}

// errUnknownType is returned internally when a field's TypeId resolves
// to neither a well-known primitive Guid nor any struct declared by a
// loaded assembly.
var errUnknownType = errors.New("runtime: type reference does not resolve to any loaded type")
