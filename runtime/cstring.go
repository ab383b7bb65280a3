package runtime

import "sync"

// CString is a string value owned by the runtime and handed across the
// host boundary. Spec.md §6.2 requires "caller must destroy" ownership
// for every returned string — rather than leaning on Go's own GC for
// something that's meant to model an explicit C-style ownership
// contract, a CString tracks its own destroyed state and every read
// after Destroy is a host bug.
type CString struct {
	mu        sync.Mutex
	value     string
	destroyed bool
}

// NewCString wraps s as an owned, destroyable string.
func NewCString(s string) *CString {
	return &CString{value: s}
}

// String returns the wrapped value. Returns "" and false once destroyed.
func (c *CString) String() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return "", false
	}
	return c.value, true
}

// Destroy releases the string. Safe to call more than once.
func (c *CString) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	c.value = ""
}
