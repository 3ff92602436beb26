package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// moduleRoot searches upward from dir for the directory holding go.mod
func moduleRoot(dir string) (string, error) {
	for start := dir; ; {
		if info, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil && !info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod at or above %s", start)
		}
		dir = parent
	}
}

// BuildBinary compiles the spackup command into a temp dir and returns the
// path of the executable
func BuildBinary(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine testutil source file")
	}
	root, err := moduleRoot(filepath.Dir(file))
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}

	bin := filepath.Join(t.TempDir(), "spackup")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/spackup")
	cmd.Dir = root
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("go build: %v: %s", err, out)
	}
	return bin
}
