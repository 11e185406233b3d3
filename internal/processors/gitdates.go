package processors

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/pagepipe/internal/engine"
	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
)

type gitdatesParams struct {
	Path      string `param:"path" validate:"path"`
	Overwrite bool   `param:"overwrite"`
}

func (p *gitdatesParams) Defaults() {
	p.Path = "."
	p.Overwrite = true
}

// gitdates sets "created" and "updated" from the commit history of each
// item's source file: the oldest commit touching it and the newest one.
// Files without history keep their dates.
func gitdates(_ *engine.Application, items item.Stream, p *gitdatesParams) (item.Stream, error) {
	repo, err := git.PlainOpenWithOptions(p.Path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, ferrors.ConfigError("open git repository").WithCause(err).
			WithContext("path", p.Path).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.ConfigError("git repository has no worktree").WithCause(err).
			WithContext("path", p.Path).Build()
	}
	root := wt.Filesystem.Root()

	return item.Each(items, func(it *item.Item) error {
		src, ok := it.GetString(keySource)
		if !ok {
			return nil
		}
		abs, err := filepath.Abs(filepath.FromSlash(src))
		if err != nil {
			return itemError(err, "gitdates", it)
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil
		}
		created, updated, found, err := commitDates(repo, filepath.ToSlash(rel))
		if err != nil {
			return itemError(err, "read git history", it)
		}
		if !found {
			return nil
		}
		if p.Overwrite || !it.Has(keyCreated) {
			it.Set(keyCreated, created)
		}
		if p.Overwrite || !it.Has(keyUpdated) {
			it.Set(keyUpdated, updated)
		}
		return nil
	}), nil
}

// commitDates walks the history of one file, newest commit first.
func commitDates(repo *git.Repository, name string) (created, updated time.Time, found bool, err error) {
	iter, err := repo.Log(&git.LogOptions{FileName: &name})
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// No commits yet.
		return created, updated, false, nil
	}
	if err != nil {
		return created, updated, false, err
	}
	defer iter.Close()

	err = iter.ForEach(func(c *object.Commit) error {
		if !found {
			updated = c.Committer.When
			found = true
		}
		created = c.Committer.When
		return nil
	})
	return created, updated, found, err
}
