package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes git subcommands inside a working directory
type Runner interface {
	// Run executes git with args in dir and returns its standard output
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// CommandError is returned when a git invocation exits non-zero
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status carried by a CommandError in err's chain,
// or -1 if there is none.
func ExitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return -1
}

// ShellRunner implements Runner by shelling out to the git command
type ShellRunner struct {
	binary      string
	configFlags []string
	logger      *slog.Logger
}

// NewShellRunner creates a runner for the given git binary. Each entry of
// config is passed to every invocation as "-c <entry>".
func NewShellRunner(binary string, config []string, logger *slog.Logger) *ShellRunner {
	if binary == "" {
		binary = "git"
	}
	if logger == nil {
		logger = slog.Default()
	}

	flags := make([]string, 0, 2*len(config))
	for _, kv := range config {
		flags = append(flags, "-c", kv)
	}

	return &ShellRunner{
		binary:      binary,
		configFlags: flags,
		logger:      logger,
	}
}

// Run executes git and returns stdout, or a *CommandError with stderr on failure
func (r *ShellRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	argv := insertGitFlags(append([]string{r.binary}, args...), r.configFlags...)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running git", "dir", dir, "args", args)

	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return stdout.String(), &CommandError{
			Args:     args,
			ExitCode: code,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	return stdout.String(), nil
}

// insertGitFlags inserts flags immediately after the "git" command name,
// before the subcommand (e.g. "pull", "diff").
func insertGitFlags(args []string, flags ...string) []string {
	if len(args) == 0 {
		return flags
	}
	result := make([]string, 0, len(args)+len(flags))
	result = append(result, args[0])
	result = append(result, flags...)
	result = append(result, args[1:]...)
	return result
}
