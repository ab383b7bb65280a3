package runtime

import (
	"sync/atomic"

	"github.com/mun-lang/mun-runtime/abi"
)

// Function is a reference-counted handle to an exported function
// (spec.md §6.2: "name, argument types, return type, function pointer").
// FindFunction returns one with an implicit reference already held; the
// caller must Release it.
type Function struct {
	def  abi.FunctionDef
	refs atomic.Int32
}

func newFunction(def abi.FunctionDef) *Function {
	f := &Function{def: def}
	f.refs.Store(1)
	return f
}

// Name returns the function's declared name.
func (f *Function) Name() string {
	return f.def.Prototype.Name
}

// ArgTypes returns the function's argument TypeIDs, in declaration order.
func (f *Function) ArgTypes() []abi.TypeID {
	return f.def.Prototype.ArgTypes
}

// ReturnType returns the function's return TypeID.
func (f *Function) ReturnType() abi.TypeID {
	return f.def.Prototype.ReturnType
}

// Invoke calls the function's body with args, matching the host-runtime
// API's "function pointer" operation (spec.md §6.2) — the Go closure
// itself stands in for a raw function pointer here, since there is no
// machine code for this runtime to jump to (abi.NativeFunc's doc comment
// explains why).
func (f *Function) Invoke(args []any) (any, error) {
	return f.def.Impl(args)
}

// Retain increments the handle's reference count.
func (f *Function) Retain() {
	f.refs.Add(1)
}

// Release decrements the handle's reference count. Matches Type's own
// Retain/Release shape for symmetry across the two handle kinds spec.md
// §6.2 names explicit reference counting for.
func (f *Function) Release() bool {
	return f.refs.Add(-1) == 0
}
