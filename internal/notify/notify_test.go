package notify

import (
	"bytes"
	"testing"
)

func TestWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	w := NewWriter(&out, &errOut)

	w.Success("Habit created")
	w.Error("Invalid credentials")

	if got := out.String(); got != "✓ Habit created\n" {
		t.Fatalf("out = %q", got)
	}
	if got := errOut.String(); got != "✗ Invalid credentials\n" {
		t.Fatalf("err = %q", got)
	}
}
