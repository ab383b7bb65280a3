package runtime

import (
	"errors"
	"testing"

	"github.com/mun-lang/mun-runtime/gc"
)

func TestLoadErrorUnwrap(t *testing.T) {
	inner := errors.New("file not found")
	err := &LoadError{Path: "lib.so", Err: inner}

	if !errors.Is(err, inner) {
		t.Fatal("expected LoadError to unwrap to inner error")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected a non-empty message")
	}
}

func TestRuntimeInvariantErrorWrapsGCSentinel(t *testing.T) {
	err := wrapGCError(gc.ErrHandleFreed)

	var rie *RuntimeInvariantError
	if !errors.As(err, &rie) {
		t.Fatalf("expected *RuntimeInvariantError, got %T", err)
	}
	if rie.Kind != HandleUseAfterFree {
		t.Fatalf("Kind = %v, want HandleUseAfterFree", rie.Kind)
	}
	if !errors.Is(err, gc.ErrHandleFreed) {
		t.Fatal("expected errors.Is to still reach the underlying gc sentinel")
	}
}

func TestWrapGCErrorPassesThroughUnrelated(t *testing.T) {
	other := errors.New("unrelated")
	if got := wrapGCError(other); got != other {
		t.Fatalf("expected unrelated errors to pass through unchanged, got %v", got)
	}
	if wrapGCError(nil) != nil {
		t.Fatal("expected nil to pass through as nil")
	}
}
