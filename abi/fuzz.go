package abi

// Fuzz feeds arbitrary bytes through Read, adapted from the teacher's own
// fuzz.go (`pe.Fuzz` feeding bytes through `pe.NewBytes`+`Parse`). It is
// consumed by go-fuzz-compatible fuzzers (`go test -fuzz` wraps it, or the
// classic `go-fuzz-build` harness invokes it directly).
func Fuzz(data []byte) int {
	info, err := Read(data)
	if err != nil {
		return 0
	}
	if info == nil {
		return 0
	}
	return 1
}
