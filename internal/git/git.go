package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	log "github.com/sirupsen/logrus"
)

const deployRef = "refs/san/deploy"

// Helper runs the handful of git operations a stage needs against the
// repository in Dir. Branch is the remote branch deploys are pushed to.
type Helper struct {
	Dir    string
	Branch string
}

func New(dir, branch string) *Helper {
	if branch == "" {
		branch = "master"
	}
	return &Helper{Dir: dir, Branch: branch}
}

// ResolveTag returns the commit of the last tag (in refname order) matching
// the glob pattern, or "" when pattern is empty or nothing matches.
func (h *Helper) ResolveTag(pattern string) (string, error) {
	if pattern == "" {
		return "", nil
	}
	repo, err := gogit.PlainOpenWithOptions(h.Dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("git open %s: %w", h.Dir, err)
	}

	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("git tags: %w", err)
	}
	tags := map[string]plumbing.Hash{}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		tags[name] = ref.Hash()
		names = append(names, name)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("git tags: %w", err)
	}

	tag, err := latestTag(names, pattern)
	if err != nil || tag == "" {
		return "", err
	}

	hash := tags[tag]
	// Annotated tags point at a tag object; deploys want the commit.
	if obj, err := repo.TagObject(hash); err == nil {
		commit, err := obj.Commit()
		if err != nil {
			return "", fmt.Errorf("git tag %s: %w", tag, err)
		}
		hash = commit.Hash
	} else if !errors.Is(err, plumbing.ErrObjectNotFound) {
		return "", fmt.Errorf("git tag %s: %w", tag, err)
	}
	log.Debugf("git: tag %s resolved to %s", tag, hash)
	return hash.String(), nil
}

func latestTag(names []string, pattern string) (string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("git tag pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	var matched []string
	for _, name := range names {
		if ok, _ := doublestar.Match(pattern, name); ok {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return "", nil
	}
	sort.Strings(matched)
	return matched[len(matched)-1], nil
}

// RemoteRevision returns the commit at the head of Branch in repoURL, or ""
// if the branch does not exist there yet.
func (h *Helper) RemoteRevision(ctx context.Context, repoURL string) (string, error) {
	out, err := h.output(ctx, "ls-remote", "--heads", repoURL, h.Branch)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

// NamedRevision describes rev the way `git name-rev` does. An empty rev
// yields "".
func (h *Helper) NamedRevision(ctx context.Context, rev string) (string, error) {
	if rev == "" {
		return "", nil
	}
	out, err := h.output(ctx, "name-rev", rev)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Push pushes rev (HEAD when empty) to Branch on repoURL through a temporary
// local ref, which is removed again whether or not the push succeeds.
func (h *Helper) Push(ctx context.Context, rev, repoURL string, flags ...string) error {
	if rev == "" {
		rev = "HEAD"
	}
	if _, err := h.output(ctx, "update-ref", deployRef, rev+"^{commit}"); err != nil {
		return err
	}
	defer func() {
		if _, err := h.output(context.Background(), "update-ref", "-d", deployRef); err != nil {
			log.Warnf("git: cleanup %s: %v", deployRef, err)
		}
	}()

	args := []string{"push", repoURL}
	args = append(args, flags...)
	args = append(args, deployRef+":refs/heads/"+h.Branch)
	_, err := h.output(ctx, args...)
	return err
}

func (h *Helper) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = h.Dir
	log.Debugf("git: %s", strings.Join(args, " "))
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %w\n%s", args[0], err, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}
