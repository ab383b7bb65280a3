package assembly

import (
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/mun-lang/mun-runtime/abi"
)

// ErrUnknownFormat is returned when a file's leading bytes don't match
// any of ELF, Mach-O, or PE's magic.
var ErrUnknownFormat = errors.New("assembly: unrecognized shared library format")

// mmapData adapts mmap.MMap (a []byte alias) to the backingData
// interface Manager.Release unmaps through.
type mmapData struct {
	mmap.MMap
}

func (d mmapData) Unmap() error {
	return d.MMap.Unmap()
}

// Load mmaps path, detects its platform shared-library format, resolves
// the well-known AssemblyInfo export to a file offset via the matching
// backend, and parses the ABI blob starting there (spec.md §4.6/§6.1).
func Load(path string) (*Manager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	// The mmap keeps the bytes mapped after the fd is closed; mirrors
	// saferwall/pe's own File.New (opens, maps, closes the fd).
	f.Close()

	offset, err := resolveAssemblyInfoOffset([]byte(data))
	if err != nil {
		data.Unmap()
		return nil, err
	}
	info, err := abi.Read([]byte(data)[offset:])
	if err != nil {
		data.Unmap()
		return nil, err
	}
	return newWithData(path, info, mmapData{data}), nil
}

// resolveAssemblyInfoOffset dispatches to the backend matching data's
// leading magic bytes.
func resolveAssemblyInfoOffset(data []byte) (uint32, error) {
	switch {
	case isELF(data):
		return resolveExportELF(data, assemblyInfoSymbol)
	case isMachO(data):
		return resolveExportMachO(data, assemblyInfoSymbol)
	case isPE(data):
		return resolveExportPE(data, assemblyInfoSymbol)
	default:
		return 0, ErrUnknownFormat
	}
}

// assemblyInfoSymbol is the well-known exported symbol name every
// compiled assembly carries (spec.md §6.1).
const assemblyInfoSymbol = "AssemblyInfo"

func isELF(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x7f && data[1] == 'E' && data[2] == 'L' && data[3] == 'F'
}

func isPE(data []byte) bool {
	return len(data) >= 2 && data[0] == 'M' && data[1] == 'Z'
}

func isMachO(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]) {
	case 0xfeedface, 0xcefaedfe, 0xfeedfacf, 0xcffaedfe, 0xcafebabe, 0xbebafeca:
		return true
	default:
		return false
	}
}
