package publisher

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	"feedmill/internal/config"
	"feedmill/internal/logger"
	"feedmill/internal/models"
)

// GitPublisher commits and pushes the output directory, best effort.
// A clean worktree and a broken push are different outcomes: the first
// is expected, the second gets a loud warning. Neither fails the run.
type GitPublisher struct {
	cfg    *config.PublishConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewGitPublisher creates a git publisher.
func NewGitPublisher(cfg *config.PublishConfig, log *logger.Logger) *GitPublisher {
	return &GitPublisher{cfg: cfg, logger: log, now: time.Now}
}

// Publish stages the produced files, commits when the worktree has
// changes and pushes to the configured remote. The returned error is
// informational; callers log it and continue.
func (p *GitPublisher) Publish(dir string, produced []string) (models.PublishOutcome, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return models.PublishFailed, fmt.Errorf("failed to open repository containing %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return models.PublishFailed, fmt.Errorf("failed to open worktree: %w", err)
	}

	for _, name := range produced {
		// dir may be relative (the default); Rel needs both sides absolute.
		abs, err := filepath.Abs(filepath.Join(dir, name))
		if err != nil {
			return models.PublishFailed, fmt.Errorf("failed to resolve %s: %w", name, err)
		}

		rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
		if err != nil {
			return models.PublishFailed, fmt.Errorf("failed to resolve %s against worktree: %w", name, err)
		}

		if _, err := wt.Add(rel); err != nil {
			return models.PublishFailed, fmt.Errorf("failed to stage %s: %w", rel, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return models.PublishFailed, fmt.Errorf("failed to read worktree status: %w", err)
	}

	if status.IsClean() {
		return models.PublishClean, nil
	}

	msg := fmt.Sprintf("Update feeds %s", p.now().UTC().Format(time.RFC3339))

	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.authorName(),
			Email: p.cfg.AuthorEmail,
			When:  p.now(),
		},
	})
	if err != nil {
		return models.PublishFailed, fmt.Errorf("commit failed: %w", err)
	}

	p.logger.Info("committed", "message", msg)

	refspec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", p.cfg.Branch, p.cfg.Branch))

	err = repo.Push(&git.PushOptions{
		RemoteName: p.cfg.Remote,
		RefSpecs:   []gitconfig.RefSpec{refspec},
	})
	if err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return models.PublishPushed, nil
		}

		return models.PublishFailed, fmt.Errorf("push to %s/%s failed: %w", p.cfg.Remote, p.cfg.Branch, err)
	}

	return models.PublishPushed, nil
}

func (p *GitPublisher) authorName() string {
	if p.cfg.AuthorName != "" {
		return p.cfg.AuthorName
	}

	return "feedmill"
}
