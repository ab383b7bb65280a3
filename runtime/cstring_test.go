package runtime

import "testing"

func TestCStringDestroy(t *testing.T) {
	c := NewCString("hello")

	got, ok := c.String()
	if !ok || got != "hello" {
		t.Fatalf("String() = %q, %v; want hello, true", got, ok)
	}

	c.Destroy()
	if _, ok := c.String(); ok {
		t.Fatal("expected String() to report false after Destroy")
	}

	// Destroy is idempotent.
	c.Destroy()
}
