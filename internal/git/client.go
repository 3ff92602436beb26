package git

import (
	"context"
	"fmt"
	"strings"
)

const headsPrefix = "refs/heads/"

// Status is the single-letter change code reported by git diff --name-status
type Status byte

const (
	StatusAdded    Status = 'A'
	StatusModified Status = 'M'
	StatusDeleted  Status = 'D'
	StatusRenamed  Status = 'R'
	StatusCopied   Status = 'C'
)

func (s Status) String() string {
	return string(s)
}

// FileChange is one entry of a name-status diff
type FileChange struct {
	Status Status
	Path   string
}

// Tracking describes the upstream a local branch is configured to merge from
type Tracking struct {
	Branch    string
	Merge     string
	Remote    string
	RemoteURL string
}

// Client runs the git protocol steps needed to update a checkout
type Client struct {
	runner Runner
	dir    string
}

// NewClient creates a client operating on the working copy at dir
func NewClient(runner Runner, dir string) *Client {
	return &Client{runner: runner, dir: dir}
}

// Dir returns the working copy the client operates on
func (c *Client) Dir() string {
	return c.dir
}

// CurrentBranch returns the bare name of the branch HEAD points to.
// A detached HEAD is an error.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, c.dir, "symbolic-ref", "-q", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve current branch: %w", err)
	}
	return ParseBranchRef(out), nil
}

// LocalBranches lists local branch names in the order git reports them
func (c *Client) LocalBranches(ctx context.Context) ([]string, error) {
	out, err := c.runner.Run(ctx, c.dir, "for-each-ref", "--format=%(refname)", headsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list local branches: %w", err)
	}
	return ParseRefList(out), nil
}

// UpstreamMerge returns the ref branch merges from, or "" when the branch
// has no upstream configured
func (c *Client) UpstreamMerge(ctx context.Context, branch string) (string, error) {
	merge, _, err := c.configValue(ctx, "branch."+branch+".merge")
	return merge, err
}

// UpstreamRemote returns the remote branch pulls from and that remote's URL.
// Both are empty when unset.
func (c *Client) UpstreamRemote(ctx context.Context, branch string) (remote, url string, err error) {
	remote, ok, err := c.configValue(ctx, "branch."+branch+".remote")
	if err != nil || !ok {
		return "", "", err
	}
	url, _, err = c.configValue(ctx, "remote."+remote+".url")
	if err != nil {
		return "", "", err
	}
	return remote, url, nil
}

// Checkout switches the working copy to branch
func (c *Client) Checkout(ctx context.Context, branch string) error {
	if _, err := c.runner.Run(ctx, c.dir, "checkout", branch); err != nil {
		return fmt.Errorf("git checkout %s failed: %w", branch, err)
	}
	return nil
}

// Pull fetches upstream and rebases the current branch onto it
func (c *Client) Pull(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, c.dir, "pull", "--rebase", "-n"); err != nil {
		return fmt.Errorf("git pull failed: %w", err)
	}
	return nil
}

// Revision resolves ref to its full commit hash
func (c *Client) Revision(ctx context.Context, ref string) (string, error) {
	out, err := c.runner.Run(ctx, c.dir, "rev-parse", ref)
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s failed: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

// DiffNameStatus lists the files that differ between two revisions. Rename
// detection is off so a moved file shows up as a deletion and an addition
// regardless of the user's diff.renames setting.
func (c *Client) DiffNameStatus(ctx context.Context, from, to string) ([]FileChange, error) {
	out, err := c.runner.Run(ctx, c.dir, DiffArgs(from, to)...)
	if err != nil {
		return nil, fmt.Errorf("git diff %s %s failed: %w", from, to, err)
	}
	return ParseNameStatus(out), nil
}

// DiffArgs returns the git arguments DiffNameStatus runs
func DiffArgs(from, to string) []string {
	return []string{"diff", "--name-status", "--no-renames", "-z", "-r", from, to}
}

// configValue reads a single git config key. ok is false when the key is
// not set (git config exits with status 1).
func (c *Client) configValue(ctx context.Context, key string) (string, bool, error) {
	out, err := c.runner.Run(ctx, c.dir, "config", "--get", key)
	if err != nil {
		if ExitCode(err) == 1 {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read git config %s: %w", key, err)
	}
	return strings.TrimSpace(out), true, nil
}

// ParseBranchRef strips the refs/heads/ prefix from a symbolic ref
func ParseBranchRef(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), headsPrefix)
}

// ParseRefList turns for-each-ref output into bare branch names
func ParseRefList(out string) []string {
	fields := strings.Fields(out)
	branches := make([]string, 0, len(fields))
	for _, ref := range fields {
		branches = append(branches, ParseBranchRef(ref))
	}
	return branches
}

// ParseNameStatus parses the NUL separated output of git diff --name-status -z.
// Each entry is a status field followed by its path. Rename and copy entries
// carry a similarity score and two paths; the destination path is kept.
// Paths are taken verbatim, so no core.quotePath unquoting is needed.
func ParseNameStatus(out string) []FileChange {
	fields := strings.Split(out, "\x00")

	var changes []FileChange
	for i := 0; i < len(fields); i++ {
		code := strings.TrimSpace(fields[i])
		if code == "" {
			continue
		}

		status := Status(code[0])
		paths := 1
		if status == StatusRenamed || status == StatusCopied {
			paths = 2
		}
		if i+paths >= len(fields) {
			break
		}
		i += paths
		if fields[i] == "" {
			continue
		}

		changes = append(changes, FileChange{Status: status, Path: fields[i]})
	}
	return changes
}
