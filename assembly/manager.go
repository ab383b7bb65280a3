// Package assembly owns a loaded Mun assembly: its backing file, the
// parsed ABI metadata, and the writable dispatch/type-lookup tables the
// Linker resolves into (spec.md §4.6).
package assembly

import (
	"sync"
	"sync/atomic"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// DispatchSlot is one resolved entry of an assembly's dispatch table: the
// prototype a call site declared, and the function the Linker bound it
// to. Fn is nil until Link succeeds.
type DispatchSlot struct {
	Prototype abi.FunctionPrototype
	Fn        abi.NativeFunc
}

// TypeSlot is one resolved entry of an assembly's type lookup table. Type
// is nil until Link succeeds.
type TypeSlot struct {
	TypeID abi.TypeID
	Type   *typeregistry.Type
}

// Manager owns one loaded assembly. Path and data are populated by a
// platform loader (Load); Info is always populated (a Manager can be
// built directly from an in-memory AssemblyInfo in tests, bypassing the
// mmap step entirely).
type Manager struct {
	mu sync.Mutex

	path string
	data backingData
	info *abi.AssemblyInfo

	dispatch []DispatchSlot
	typeLUT  []TypeSlot

	refs   atomic.Int32
	closed bool
}

// backingData is whatever keeps the assembly's bytes alive for as long as
// the Manager is open: an mmap.MMap region for a loaded file, or nil for
// a Manager built directly over an in-memory AssemblyInfo (as every test
// in this module does, since the toolchain never actually loads a shared
// library here).
type backingData interface {
	Unmap() error
}

// New wraps an already-parsed AssemblyInfo with no backing file. Used by
// tests and by any future in-process assembly registration path.
func New(path string, info *abi.AssemblyInfo) *Manager {
	return &Manager{path: path, info: info}
}

// newWithData is used by the platform loaders (Load*), which additionally
// own an mmap'd region that must be unmapped on Close.
func newWithData(path string, info *abi.AssemblyInfo, data backingData) *Manager {
	return &Manager{path: path, info: info, data: data}
}

// Path returns the file path this assembly was loaded from.
func (m *Manager) Path() string {
	return m.path
}

// Info returns the parsed ABI metadata. Never mutated after construction.
func (m *Manager) Info() *abi.AssemblyInfo {
	return m.info
}

// Dispatch returns the current dispatch table. Empty (unresolved) slots
// until SetDispatch is called by the Linker.
func (m *Manager) Dispatch() []DispatchSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dispatch
}

// TypeLUT returns the current type lookup table. Empty (unresolved)
// slots until SetTypeLUT is called by the Linker.
func (m *Manager) TypeLUT() []TypeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typeLUT
}

// SetDispatch installs a freshly linked dispatch table. Called only by
// linker.Link on success — it never partially commits a table, so this
// either replaces the whole slice or isn't called at all.
func (m *Manager) SetDispatch(slots []DispatchSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatch = slots
}

// SetTypeLUT installs a freshly linked type lookup table.
func (m *Manager) SetTypeLUT(slots []TypeSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typeLUT = slots
}

// FindFunction looks up one of this assembly's own exported functions by
// name (as opposed to a dispatch-table slot, which is something this
// assembly calls out to).
func (m *Manager) FindFunction(name string) (abi.FunctionDef, bool) {
	for _, f := range m.info.Module.Functions {
		if f.Prototype.Name == name {
			return f, true
		}
	}
	return abi.FunctionDef{}, false
}

// Retain increments the reference count that gates unmapping. The runtime
// holds one reference for each Manager it currently has loaded; individual
// dispatch-table bindings and live GC objects are not counted here.
func (m *Manager) Retain() {
	m.refs.Add(1)
}

// Release decrements the reference count and, if it has reached zero,
// unmaps the backing file (spec.md §4.6: unmapped "only after its last
// exported function is provably unreferenced ... and no live object has
// one of its types"). Release is a no-op past the first call that drops
// the count to zero.
func (m *Manager) Release() error {
	if m.refs.Add(-1) > 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.data == nil {
		m.closed = true
		return nil
	}
	m.closed = true
	return m.data.Unmap()
}

// RefCount returns the current reference count, mainly for tests.
func (m *Manager) RefCount() int32 {
	return m.refs.Load()
}
