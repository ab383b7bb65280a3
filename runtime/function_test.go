package runtime

import (
	"errors"
	"testing"

	"github.com/mun-lang/mun-runtime/abi"
)

func TestFunctionInvoke(t *testing.T) {
	def := abi.FunctionDef{
		Prototype: abi.FunctionPrototype{Name: "add"},
		Impl: func(args []any) (any, error) {
			return args[0].(int) + args[1].(int), nil
		},
	}
	f := newFunction(def)

	got, err := f.Invoke([]any{1, 2})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got != 3 {
		t.Fatalf("got %v, want 3", got)
	}
	if f.Name() != "add" {
		t.Fatalf("Name() = %q, want add", f.Name())
	}
}

func TestFunctionInvokeError(t *testing.T) {
	boom := errors.New("boom")
	f := newFunction(abi.FunctionDef{
		Impl: func(args []any) (any, error) { return nil, boom },
	})
	if _, err := f.Invoke(nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFunctionRefcount(t *testing.T) {
	f := newFunction(abi.FunctionDef{}) // starts at 1, the caller's implicit reference
	f.Retain()                          // 2
	if f.Release() {                    // 1
		t.Fatal("Release should not report zero yet")
	}
	if !f.Release() { // 0
		t.Fatal("expected the last Release to report zero")
	}
}
