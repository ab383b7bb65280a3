package assembly

import "testing"

func TestFormatDetection(t *testing.T) {
	cases := []struct {
		name   string
		data   []byte
		isELF  bool
		isMach bool
		isPE   bool
	}{
		{"elf", []byte{0x7f, 'E', 'L', 'F', 0, 0}, true, false, false},
		{"macho64le", []byte{0xcf, 0xfa, 0xed, 0xfe, 0, 0}, false, true, false},
		{"macho32le", []byte{0xce, 0xfa, 0xed, 0xfe, 0, 0}, false, true, false},
		{"pe", []byte{'M', 'Z', 0x90, 0}, false, false, true},
		{"unknown", []byte{1, 2, 3, 4}, false, false, false},
		{"tooShort", []byte{0x7f}, false, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isELF(c.data); got != c.isELF {
				t.Errorf("isELF = %v, want %v", got, c.isELF)
			}
			if got := isMachO(c.data); got != c.isMach {
				t.Errorf("isMachO = %v, want %v", got, c.isMach)
			}
			if got := isPE(c.data); got != c.isPE {
				t.Errorf("isPE = %v, want %v", got, c.isPE)
			}
		})
	}
}

func TestResolveAssemblyInfoOffsetRejectsUnknownFormat(t *testing.T) {
	_, err := resolveAssemblyInfoOffset([]byte{1, 2, 3, 4})
	if err != ErrUnknownFormat {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}
