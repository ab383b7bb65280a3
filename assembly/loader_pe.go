package assembly

import "github.com/mun-lang/mun-runtime/internal/winpe"

// resolveExportPE adapts internal/winpe (itself adapted from the
// teacher's RVA→file-offset machinery) instead of writing a second PE
// parser from scratch.
func resolveExportPE(data []byte, name string) (uint32, error) {
	return winpe.ResolveExport(data, name)
}
