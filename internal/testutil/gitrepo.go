package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// RequireGit skips the test when no git binary is on PATH
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

// Git runs a git command and fails the test on error. It returns stdout and stderr combined.
func Git(t *testing.T, args ...string) string {
	t.Helper()
	out, err := exec.Command("git", args...).CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, out)
	}
	return string(out)
}

// InitRepo creates a local repo on the given branch with a committer identity.
func InitRepo(t *testing.T, dir, branch string) {
	t.Helper()
	Git(t, "init", "-b", branch, dir)
	Git(t, "-C", dir, "config", "user.email", "test@test.com")
	Git(t, "-C", dir, "config", "user.name", "Test")
}

// CommitFile creates or overwrites a file (creating parent directories) and commits it.
func CommitFile(t *testing.T, repoDir, name, content, msg string) {
	t.Helper()
	full := filepath.Join(repoDir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	Git(t, "-C", repoDir, "add", name)
	Git(t, "-C", repoDir, "commit", "-m", msg)
}

// RemoveFile deletes a tracked file and commits the removal.
func RemoveFile(t *testing.T, repoDir, name, msg string) {
	t.Helper()
	Git(t, "-C", repoDir, "rm", "-q", name)
	Git(t, "-C", repoDir, "commit", "-m", msg)
}
