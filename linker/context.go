package linker

import (
	"github.com/mun-lang/mun-runtime/abi"
	"github.com/mun-lang/mun-runtime/assembly"
	"github.com/mun-lang/mun-runtime/typeregistry"
)

// Context exposes everything a Link call may resolve a slot against: the
// host's own registered external functions, every other currently-loaded
// assembly (for both its function exports and, indirectly through Types,
// its type definitions), and the Type Registry a type lookup table entry
// resolves through.
//
// A Context is built fresh by the orchestrator for each reload's
// single-pass link (spec.md §4.7 step 5) — loading every candidate
// assembly's ABI first and only then constructing one Context means
// Link never has to assume a dependency traversal order (spec.md §4.5,
// "Cycle handling").
type Context struct {
	Host       []abi.FunctionDef
	Assemblies []*assembly.Manager
	Types      *typeregistry.Registry
}

// resolveFunction finds every candidate (host function or assembly
// export) whose prototype name matches. Zero candidates is
// MissingFunction, more than one is DuplicateFunction, exactly one is a
// match pending the signature check.
func (ctx *Context) resolveFunction(name string) []abi.FunctionDef {
	var matches []abi.FunctionDef
	for _, h := range ctx.Host {
		if h.Prototype.Name == name {
			matches = append(matches, h)
		}
	}
	for _, asm := range ctx.Assemblies {
		for _, f := range asm.Info().Module.Functions {
			if f.Prototype.Name == name {
				matches = append(matches, f)
			}
		}
	}
	return matches
}
