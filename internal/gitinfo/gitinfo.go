// Package gitinfo stamps generated files with the state of the repository
// they were generated from.
package gitinfo

import (
	"fmt"

	git "github.com/go-git/go-git/v6"
)

// Describe returns a short "branch@commit" description of the repository
// containing path, with a "+dirty" suffix when the worktree has uncommitted
// changes. ok is false when path is not inside a git repository or the
// repository cannot be read; generation proceeds without a stamp then.
func Describe(path string) (desc string, ok bool) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}

	head, err := repo.Head()
	if err != nil {
		return "", false
	}

	desc = fmt.Sprintf("%s@%.8s", head.Name().Short(), head.Hash().String())

	if worktree, err := repo.Worktree(); err == nil {
		if status, err := worktree.Status(); err == nil && !status.IsClean() {
			desc += "+dirty"
		}
	}

	return desc, true
}
