package assembly

import (
	"bytes"
	"debug/elf"
	"fmt"
)

// resolveExportELF is the backend for Linux shared libraries; no test in
// this module runs it against a real ELF file. It finds name in the
// dynamic symbol table, then
// translate its virtual address to a file offset via the owning
// section's Addr/Offset, the same "look up the symbol, find its
// section, subtract the section's load address and add its file
// offset" resolution every ELF loader does.
func resolveExportELF(data []byte, name string) (uint32, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	syms, err := f.DynamicSymbols()
	if err != nil {
		return 0, fmt.Errorf("assembly: reading ELF dynamic symbols: %w", err)
	}

	for _, s := range syms {
		if s.Name != name {
			continue
		}
		for _, sec := range f.Sections {
			if s.Value >= sec.Addr && s.Value < sec.Addr+sec.Size && sec.Type != elf.SHT_NOBITS {
				return uint32(s.Value-sec.Addr) + uint32(sec.Offset), nil
			}
		}
		return 0, fmt.Errorf("assembly: ELF symbol %q has no owning section", name)
	}
	return 0, fmt.Errorf("assembly: ELF export %q not found", name)
}
