package assembly

import (
	"bytes"
	"debug/macho"
	"fmt"
)

// resolveExportMachO is the smaller of the two stdlib-only backends:
// look up name in the symbol table, then use the symbol's one-based
// section index to go straight to that section's Addr/Offset pair (the
// same virtual-address-to-file-offset rule as the ELF backend, just
// reached through Mach-O's section-indexed symbol table instead of a
// separate section scan).
func resolveExportMachO(data []byte, name string) (uint32, error) {
	f, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if f.Symtab == nil {
		return 0, fmt.Errorf("assembly: Mach-O image has no symbol table")
	}

	for _, s := range f.Symtab.Syms {
		if s.Name != name && s.Name != "_"+name {
			continue
		}
		if s.Sect == 0 || int(s.Sect) > len(f.Sections) {
			return 0, fmt.Errorf("assembly: Mach-O symbol %q has no owning section", name)
		}
		sec := f.Sections[s.Sect-1]
		return uint32(s.Value-sec.Addr) + sec.Offset, nil
	}
	return 0, fmt.Errorf("assembly: Mach-O export %q not found", name)
}
