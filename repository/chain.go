package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gobwas/glob"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/deobf/coordinate"
)

const Realm = "repository"

// Entry is a repository in a [Chain] together with the module patterns it is consulted for.
type Entry struct {
	// Name is used to identify the repository in logs and errors.
	Name       string
	Repository Repository
	// Patterns are glob patterns matched against the "group:name" of a requested coordinate,
	// e.g. "net.mc:*". An entry without patterns is consulted for every coordinate.
	Patterns []string
}

// Chain consults an ordered list of repositories and returns the first file found.
// A Chain is itself a [Repository] and can be nested.
type Chain struct {
	entries  []Entry
	matchers [][]glob.Glob
}

var _ Repository = (*Chain)(nil)

// NewChain compiles the entry patterns and creates a chain.
// The entries are consulted in the given order.
func NewChain(entries ...Entry) (*Chain, error) {
	matchers := make([][]glob.Glob, len(entries))
	var errs []error
	for i, entry := range entries {
		if entry.Repository == nil {
			errs = append(errs, fmt.Errorf("repository %d (%s) is nil", i, entry.Name))
			continue
		}
		for _, pattern := range entry.Patterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to compile glob pattern %q of repository %d (%s): %w", pattern, i, entry.Name, err))
				continue
			}
			matchers[i] = append(matchers[i], g)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("one or more repositories are invalid: %w", errors.Join(errs...))
	}
	return &Chain{entries: entries, matchers: matchers}, nil
}

// FindFile asks every matching repository in order. Repositories returning [ErrNotFound]
// are skipped, the first path found is returned. Any other error aborts the lookup.
// If no repository serves the coordinate, an error matching ErrNotFound is returned.
func (c *Chain) FindFile(ctx context.Context, coord coordinate.Coordinate) (string, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm))

	key := coord.Group + ":" + coord.Name
	for index, entry := range c.entries {
		if !c.matches(index, key) {
			continue
		}
		path, err := entry.Repository.FindFile(ctx, coord)
		if errors.Is(err, ErrNotFound) {
			logger.Log(ctx, slog.LevelDebug, "artifact not served by repository",
				slog.String("repository", entry.Name),
				slog.String("artifact", coord.String()),
			)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("finding %s in repository %s failed: %w", coord, entry.Name, err)
		}
		logger.Log(ctx, slog.LevelDebug, "artifact found",
			slog.String("repository", entry.Name),
			slog.String("artifact", coord.String()),
			slog.String("path", path),
		)
		return path, nil
	}
	return "", fmt.Errorf("%s not found in any of %d repositories: %w", coord, len(c.entries), ErrNotFound)
}

// Len returns the number of repositories in the chain.
func (c *Chain) Len() int {
	return len(c.entries)
}

func (c *Chain) matches(index int, key string) bool {
	if len(c.entries[index].Patterns) == 0 {
		return true
	}
	for _, m := range c.matchers[index] {
		if m.Match(key) {
			return true
		}
	}
	return false
}
