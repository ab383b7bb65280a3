package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/assembly"
	"github.com/mun-lang/mun-runtime/gc"
	"github.com/mun-lang/mun-runtime/internal/rtlog"
	"github.com/mun-lang/mun-runtime/linker"
	"github.com/mun-lang/mun-runtime/typeregistry"
	"github.com/mun-lang/mun-runtime/watcher"
)

// Options configures a Runtime at construction (spec.md §6.3), mirroring
// the teacher's own pe.Options shape: a plain struct of recognized
// fields, a nil-safe default, and a custom Logger slot.
type Options struct {
	// FileWatcherDebounceMS is the coalescing window, in milliseconds,
	// for the background file watcher. Zero uses watcher.DefaultDebounce.
	FileWatcherDebounceMS int

	// ExternalFunctions are host-registered functions generated code can
	// call via extern declarations (spec.md §6.3). They persist across
	// reloads without needing to be re-registered (spec.md §8 scenario 2).
	ExternalFunctions []abi.FunctionDef

	// InitialHeapSizeHint is advisory (spec.md §6.3).
	InitialHeapSizeHint int

	// Logger overrides the process-global default (rtlog.Global()).
	Logger rtlog.Logger
}

// Runtime is the embeddable host-runtime handle (spec.md §4.7/§6.2). All
// of its mutable state — the heap, the type registry, the per-assembly
// tables, and the assembly list — is owned exclusively by the Runtime
// (spec.md §5); nothing here is safe to call concurrently from more than
// one goroutine, aside from the watcher's own background goroutine, which
// only ever communicates back through Watcher.Drain.
type Runtime struct {
	mu sync.Mutex

	opts   Options
	logger rtlog.Logger

	heap  *gc.Heap
	types *resolvedTypes

	rootPath   string
	order      []string // load order, root first, dependencies after
	assemblies map[string]*assembly.Manager

	pendingUnmap []pendingUnmapEntry

	watcher    *watcher.Watcher
	watchClose context.CancelFunc
}

// New loads the root assembly at path and its transitive dependencies,
// registers host external functions, performs an initial link across
// all of them, and starts the background file watcher (spec.md §4.7's
// `new`). Any failure here prevents the Runtime from being constructed
// (spec.md §7's initial-load propagation policy) — nothing is partially
// left running.
func New(path string, opts *Options) (*Runtime, error) {
	managers := make(map[string]*assembly.Manager)
	var order []string
	if err := loadTransitive(path, managers, &order); err != nil {
		return nil, err
	}
	return newFromManagers(path, managers, order, opts)
}

// newFromManagers builds a Runtime from an already-loaded manager set,
// shared by New (which loads managers from disk via loadTransitive) and
// by tests that build managers in-memory via assembly.New, bypassing the
// mmap step entirely the same way assembly's own tests do.
func newFromManagers(rootPath string, managers map[string]*assembly.Manager, order []string, opts *Options) (*Runtime, error) {
	resolved := Options{}
	if opts != nil {
		resolved = *opts
	}
	logger := resolved.Logger
	if logger == nil {
		logger = rtlog.Global()
	}

	types, err := resolveTypes(managers)
	if err != nil {
		return nil, fmt.Errorf("runtime: resolving types: %w", err)
	}
	warmTypeLUT(types, managers)

	ctx := &linker.Context{
		Host:       resolved.ExternalFunctions,
		Assemblies: managerList(managers),
		Types:      types.registry,
	}
	for _, p := range order {
		if err := linker.Link(managers[p], ctx); err != nil {
			return nil, fmt.Errorf("runtime: linking %s: %w", p, err)
		}
		managers[p].Retain()
	}

	w, err := watcher.New(order, toDebounce(resolved.FileWatcherDebounceMS), logger)
	if err != nil {
		return nil, fmt.Errorf("runtime: starting file watcher: %w", err)
	}
	watchCtx, cancel := context.WithCancel(context.Background())
	w.Start(watchCtx)

	rt := &Runtime{
		opts:       resolved,
		logger:     logger,
		heap:       gc.NewHeap(resolved.InitialHeapSizeHint),
		types:      types,
		rootPath:   rootPath,
		order:      order,
		assemblies: managers,
		watcher:    w,
		watchClose: cancel,
	}
	return rt, nil
}

// loadTransitive loads path and every file it (recursively) declares as
// a dependency into managers, appending each newly-loaded path to order
// in load order. A path already present in managers is skipped — cyclic
// dependencies are expected (spec.md §4.5's "Cycle handling") and are
// simply a no-op revisit, not an error.
func loadTransitive(path string, managers map[string]*assembly.Manager, order *[]string) error {
	if _, ok := managers[path]; ok {
		return nil
	}
	m, err := assembly.Load(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	managers[path] = m
	*order = append(*order, path)

	dir := filepath.Dir(path)
	for _, dep := range m.Info().Dependencies {
		depPath := dep
		if !filepath.IsAbs(depPath) {
			depPath = filepath.Join(dir, dep)
		}
		if _, err := os.Stat(depPath); err != nil {
			return &LoadError{Path: depPath, Err: fmt.Errorf("dependency declared by %s: %w", path, err)}
		}
		if err := loadTransitive(depPath, managers, order); err != nil {
			return err
		}
	}
	return nil
}

func managerList(managers map[string]*assembly.Manager) []*assembly.Manager {
	out := make([]*assembly.Manager, 0, len(managers))
	for _, m := range managers {
		out = append(out, m)
	}
	return out
}

func toDebounce(ms int) time.Duration {
	if ms <= 0 {
		return watcher.DefaultDebounce
	}
	return time.Duration(ms) * time.Millisecond
}

// FindFunction searches exports across all loaded assemblies (spec.md
// §4.7). The returned Function holds one reference on behalf of the
// caller, who must Release it.
func (rt *Runtime) FindFunction(name string) (*Function, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for _, p := range rt.order {
		if def, ok := rt.assemblies[p].FindFunction(name); ok {
			return newFunction(def), true
		}
	}
	return nil, false
}

// Alloc allocates a zero-initialized instance of t, forwarded to the GC
// (spec.md §4.7).
func (rt *Runtime) Alloc(t *typeregistry.Type) (*gc.Handle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	h, err := rt.heap.Alloc(t)
	if err != nil {
		return nil, &RuntimeInvariantError{Kind: AllocNonStruct, Err: err}
	}
	return h, nil
}

// Root roots h, forwarded to the GC.
func (rt *Runtime) Root(h *gc.Handle) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return wrapGCError(rt.heap.Root(h))
}

// Unroot unroots h, forwarded to the GC.
func (rt *Runtime) Unroot(h *gc.Handle) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return wrapGCError(rt.heap.Unroot(h))
}

// Collect runs a full mark-and-sweep cycle and reports whether anything
// was reclaimed (spec.md §4.7), then re-checks every manager waiting on
// a type-liveness gate for unload (spec.md §9's "a defensive
// implementation keeps superseded libraries loaded until the next
// collect() confirms no live handle ... references them").
func (rt *Runtime) Collect() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	reclaimed := rt.heap.Collect()
	rt.sweepPendingUnmap()
	return reclaimed
}

// FindType resolves a name to its currently-live Type, if any (spec.md
// §6.2's Type handle operations start from a name or a TypeId).
func (rt *Runtime) FindType(name string) (*typeregistry.Type, bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.types.registry.FindByName(name)
}

// Close stops the background file watcher. It does not unmap any
// assembly; assemblies are unmapped as their refcount and type-liveness
// gate allow, independent of Close.
func (rt *Runtime) Close() error {
	rt.watchClose()
	return rt.watcher.Close()
}

func wrapGCError(err error) error {
	switch err {
	case nil:
		return nil
	case gc.ErrHandleFreed:
		return &RuntimeInvariantError{Kind: HandleUseAfterFree, Err: err}
	case gc.ErrUnrootWithoutRoot:
		return &RuntimeInvariantError{Kind: UnrootWithoutRoot, Err: err}
	default:
		return err
	}
}
