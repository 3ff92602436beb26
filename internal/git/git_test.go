package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/schaermu/spackup/internal/testutil"
)

func TestShellRunner_Run(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	dir := t.TempDir()
	testutil.InitRepo(t, dir, "main")
	testutil.CommitFile(t, dir, "hello.txt", "hello\n", "Initial commit")

	runner := NewShellRunner("git", []string{"protocol.file.allow=always"}, nil)
	out, err := runner.Run(ctx, dir, "symbolic-ref", "-q", "HEAD")
	if err != nil {
		t.Fatalf("symbolic-ref: %v", err)
	}
	if strings.TrimSpace(out) != "refs/heads/main" {
		t.Errorf("expected refs/heads/main, got %q", out)
	}
}

func TestShellRunner_CommandError(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	dir := t.TempDir()
	testutil.InitRepo(t, dir, "main")

	runner := NewShellRunner("", nil, nil)
	_, err := runner.Run(ctx, dir, "config", "--get", "branch.main.merge")
	if err == nil {
		t.Fatal("expected error for missing config key, got nil")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %T", err)
	}
	if cmdErr.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", cmdErr.ExitCode)
	}
	if ExitCode(err) != 1 {
		t.Errorf("ExitCode() = %d, want 1", ExitCode(err))
	}
}

func TestExitCode_NoCommandError(t *testing.T) {
	if got := ExitCode(errors.New("boom")); got != -1 {
		t.Errorf("ExitCode() = %d, want -1", got)
	}
}

func TestClient_AgainstRealRepo(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	upstream := t.TempDir()
	testutil.InitRepo(t, upstream, "develop")
	testutil.CommitFile(t, upstream, "pkgs/foo/package.py", "v1\n", "Add foo")
	testutil.CommitFile(t, upstream, "pkgs/bar/package.py", "v1\n", "Add bar")

	clone := filepath.Join(t.TempDir(), "clone")
	testutil.Git(t, "clone", "-q", upstream, clone)

	client := NewClient(NewShellRunner("git", nil, nil), clone)

	branch, err := client.CurrentBranch(ctx)
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "develop" {
		t.Errorf("expected develop, got %q", branch)
	}

	branches, err := client.LocalBranches(ctx)
	if err != nil {
		t.Fatalf("LocalBranches: %v", err)
	}
	if len(branches) != 1 || branches[0] != "develop" {
		t.Errorf("expected [develop], got %v", branches)
	}

	merge, err := client.UpstreamMerge(ctx, "develop")
	if err != nil {
		t.Fatalf("UpstreamMerge: %v", err)
	}
	if merge != "refs/heads/develop" {
		t.Errorf("expected refs/heads/develop, got %q", merge)
	}

	remote, url, err := client.UpstreamRemote(ctx, "develop")
	if err != nil {
		t.Fatalf("UpstreamRemote: %v", err)
	}
	if remote != "origin" || url != upstream {
		t.Errorf("unexpected remote %q with url %q", remote, url)
	}

	old, err := client.Revision(ctx, "HEAD")
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}

	// Move upstream forward and pull. bar is removed and baz added with the
	// same content, which git would otherwise pair up as a rename.
	testutil.CommitFile(t, upstream, "pkgs/baz/package.py", "v1\n", "Add baz")
	testutil.CommitFile(t, upstream, "pkgs/foo/package.py", "v2\n", "Update foo")
	testutil.RemoveFile(t, upstream, "pkgs/bar/package.py", "Remove bar")
	testutil.CommitFile(t, upstream, "pkgs/café/package.py", "cafe\n", "Add café")

	if err := client.Pull(ctx); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	cur, err := client.Revision(ctx, "HEAD")
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if cur == old {
		t.Fatal("expected revision to change after pull")
	}

	changes, err := client.DiffNameStatus(ctx, old, cur)
	if err != nil {
		t.Fatalf("DiffNameStatus: %v", err)
	}
	got := make(map[string]Status)
	for _, c := range changes {
		got[c.Path] = c.Status
	}
	want := map[string]Status{
		"pkgs/baz/package.py":  StatusAdded,
		"pkgs/foo/package.py":  StatusModified,
		"pkgs/bar/package.py":  StatusDeleted,
		"pkgs/café/package.py": StatusAdded,
	}
	if len(got) != len(want) {
		t.Errorf("expected %d changes, got %v", len(want), changes)
	}
	for path, status := range want {
		if got[path] != status {
			t.Errorf("expected %s for %s, got %v", status, path, changes)
		}
	}
}

func TestClient_DiffIgnoresRenameConfig(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	dir := t.TempDir()
	testutil.InitRepo(t, dir, "develop")
	testutil.Git(t, "-C", dir, "config", "diff.renames", "copies")
	testutil.CommitFile(t, dir, "p/curl/package.py", "v1\n", "Add curl")
	testutil.Git(t, "-C", dir, "mv", "p/curl", "p/openssl")
	testutil.Git(t, "-C", dir, "commit", "-q", "-m", "Move curl to openssl")

	client := NewClient(NewShellRunner("git", nil, nil), dir)
	changes, err := client.DiffNameStatus(ctx, "HEAD~1", "HEAD")
	if err != nil {
		t.Fatalf("DiffNameStatus: %v", err)
	}

	want := []FileChange{
		{Status: StatusDeleted, Path: "p/curl/package.py"},
		{Status: StatusAdded, Path: "p/openssl/package.py"},
	}
	if len(changes) != len(want) {
		t.Fatalf("DiffNameStatus() = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("DiffNameStatus()[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestClient_UpstreamAbsent(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	dir := t.TempDir()
	testutil.InitRepo(t, dir, "main")
	testutil.CommitFile(t, dir, "hello.txt", "hello\n", "Initial commit")

	client := NewClient(NewShellRunner("git", nil, nil), dir)
	merge, err := client.UpstreamMerge(ctx, "main")
	if err != nil {
		t.Fatalf("UpstreamMerge: %v", err)
	}
	if merge != "" {
		t.Errorf("expected no merge ref for branch without upstream, got %q", merge)
	}

	remote, url, err := client.UpstreamRemote(ctx, "main")
	if err != nil {
		t.Fatalf("UpstreamRemote: %v", err)
	}
	if remote != "" || url != "" {
		t.Errorf("expected no remote, got %q %q", remote, url)
	}
}

func TestClient_CurrentBranchDetached(t *testing.T) {
	testutil.RequireGit(t)
	ctx := context.Background()

	dir := t.TempDir()
	testutil.InitRepo(t, dir, "main")
	testutil.CommitFile(t, dir, "hello.txt", "hello\n", "Initial commit")
	testutil.Git(t, "-C", dir, "checkout", "-q", "--detach")

	client := NewClient(NewShellRunner("git", nil, nil), dir)
	if _, err := client.CurrentBranch(ctx); err == nil {
		t.Fatal("expected error for detached HEAD, got nil")
	}
}

func TestIsWorkingCopy(t *testing.T) {
	testutil.RequireGit(t)

	repoDir := t.TempDir()
	testutil.InitRepo(t, repoDir, "main")

	ok, err := IsWorkingCopy(repoDir)
	if err != nil {
		t.Fatalf("IsWorkingCopy: %v", err)
	}
	if !ok {
		t.Error("expected repo dir to be a working copy")
	}

	plainDir := t.TempDir()
	ok, err = IsWorkingCopy(plainDir)
	if err != nil {
		t.Fatalf("IsWorkingCopy: %v", err)
	}
	if ok {
		t.Error("expected plain dir not to be a working copy")
	}

	// Subdirectories of a checkout are not the checkout root.
	sub := filepath.Join(repoDir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	ok, err = IsWorkingCopy(sub)
	if err != nil {
		t.Fatalf("IsWorkingCopy: %v", err)
	}
	if ok {
		t.Error("expected subdirectory not to be a working copy root")
	}
}

func TestParseBranchRef(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "refs/heads/develop\n", want: "develop"},
		{input: "refs/heads/feature/refs/heads/x", want: "feature/refs/heads/x"},
		{input: "main", want: "main"},
	}

	for _, tt := range tests {
		if got := ParseBranchRef(tt.input); got != tt.want {
			t.Errorf("ParseBranchRef(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseRefList(t *testing.T) {
	got := ParseRefList("refs/heads/main\nrefs/heads/develop\nrefs/heads/feature/x\n")
	want := []string{"main", "develop", "feature/x"}
	if len(got) != len(want) {
		t.Fatalf("ParseRefList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseRefList()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := ParseRefList(""); len(got) != 0 {
		t.Errorf("expected no branches for empty output, got %v", got)
	}
}

func TestParseNameStatus(t *testing.T) {
	out := "A\x00pkgs/foo/package.py\x00" +
		"M\x00pkgs/bar baz/package.py\x00" +
		"D\x00pkgs/caf\u00e9/package.py\x00" +
		"R100\x00pkgs/old/package.py\x00pkgs/new/package.py\x00" +
		"\x00" +
		"M\x00"

	got := ParseNameStatus(out)
	want := []FileChange{
		{Status: StatusAdded, Path: "pkgs/foo/package.py"},
		{Status: StatusModified, Path: "pkgs/bar baz/package.py"},
		{Status: StatusDeleted, Path: "pkgs/café/package.py"},
		{Status: StatusRenamed, Path: "pkgs/new/package.py"},
	}

	if len(got) != len(want) {
		t.Fatalf("ParseNameStatus() length = %d, want %d\ngot:  %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseNameStatus()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := ParseNameStatus(""); len(got) != 0 {
		t.Errorf("expected no changes for empty output, got %v", got)
	}
}

func TestInsertGitFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		flags []string
		want  []string
	}{
		{
			name:  "insert before subcommand",
			args:  []string{"git", "pull", "--rebase", "-n"},
			flags: []string{"-c", "key=value"},
			want:  []string{"git", "-c", "key=value", "pull", "--rebase", "-n"},
		},
		{
			name:  "no flags",
			args:  []string{"git", "rev-parse", "HEAD"},
			flags: nil,
			want:  []string{"git", "rev-parse", "HEAD"},
		},
		{
			name:  "empty args",
			args:  []string{},
			flags: []string{"-c", "key=value"},
			want:  []string{"-c", "key=value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := insertGitFlags(tt.args, tt.flags...)
			if len(got) != len(tt.want) {
				t.Fatalf("insertGitFlags() length = %d, want %d\ngot:  %v\nwant: %v", len(got), len(tt.want), got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("insertGitFlags()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
