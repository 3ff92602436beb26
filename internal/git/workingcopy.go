package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// IsWorkingCopy reports whether path is the root of a git working copy.
// Parent directories are not searched.
func IsWorkingCopy(path string) (bool, error) {
	_, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit:          false,
		EnableDotGitCommonDir: true,
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return false, nil
	}
	return false, fmt.Errorf("failed to open %s: %w", path, err)
}
