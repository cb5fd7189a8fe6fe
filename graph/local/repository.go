package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ocm.software/open-component-model/deobf/cache"
	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/repository"
)

// Repository serves artifact files from local Maven-layout directories.
type Repository struct {
	roots []string
}

var _ repository.Repository = (*Repository)(nil)

func NewRepository(roots ...string) (*Repository, error) {
	normalized, err := normalizeRoots(roots)
	if err != nil {
		return nil, err
	}
	return &Repository{roots: normalized}, nil
}

// FindFile returns the path of the artifact in the first root containing it.
func (r *Repository) FindFile(ctx context.Context, c coordinate.Coordinate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("invalid artifact %s: %w", c, err)
	}
	rel := filepath.FromSlash(c.RelativePath())
	for _, root := range r.roots {
		path := filepath.Join(root, rel)
		if !cache.Within(root, path) {
			return "", fmt.Errorf("artifact %s is outside of repository root %s", c, root)
		}
		fi, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("unable to stat %s: %w", path, err)
		}
		if fi.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", c, repository.ErrNotFound)
}
