package cli

import (
	"os"
	"testing"
)

func TestIsTTY(t *testing.T) {
	// Test with stdout (may or may not be TTY depending on environment)
	result := IsTTY(os.Stdout.Fd())

	// Should return a boolean without panicking
	if result != true && result != false {
		t.Errorf("IsTTY should return a boolean, got: %v", result)
	}

	// Note: In CI environments, this will typically return false
	// In interactive terminal, this will return true
	t.Logf("IsTTY(stdout) = %v (expected: false in CI, true in terminal)", result)
}

func TestIsTTY_Pipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe failed: %v", err)
	}
	defer func() {
		_ = r.Close()
		_ = w.Close()
	}()

	if IsTTY(w.Fd()) {
		t.Error("a pipe should never be detected as a TTY")
	}
}

func TestTTYDetection_Consistency(t *testing.T) {
	// IsOutputTerminal and IsTTY(stdout) should be consistent
	outputTerminal := IsOutputTerminal()
	stdoutTTY := IsTTY(os.Stdout.Fd())

	if outputTerminal != stdoutTTY {
		t.Errorf("IsOutputTerminal() and IsTTY(stdout) should match: outputTerminal=%v, stdoutTTY=%v", outputTerminal, stdoutTTY)
	}
}
