// Package cache stores produced artifacts on the local filesystem, addressed
// by their coordinate in a Maven-style layout beneath a root directory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/repository"
)

const Realm = "cache"

// DigestSuffix is appended to the artifact path to form the path of its digest file.
const DigestSuffix = ".sha256"

const defaultIOBufferSize = 1 << 20 // 1 MiB

var ioBufPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, defaultIOBufferSize)
		return &buffer
	},
}

// ErrDigestMismatch is returned by [Store.Verify] if the content of an artifact
// does not match its recorded digest.
var ErrDigestMismatch = errors.New("digest mismatch")

// Store is a filesystem backed artifact store.
// Artifacts become visible atomically once completely written.
type Store struct {
	root string
}

var _ repository.Repository = (*Store)(nil)

// New creates a store rooted at root. The directory is created if it does not exist.
func New(root string) (*Store, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	fi, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		if err = os.MkdirAll(root, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache root: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("unable to stat cache root: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("cache root is not a directory: %s", root)
	}
	return &Store{root: root}, nil
}

// Root returns the absolute root directory of the store.
func (s *Store) Root() string {
	return s.root
}

// Sub returns a store rooted at the named subdirectory of s.
func (s *Store) Sub(name string) (*Store, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid cache subdirectory %q", name)
	}
	return New(filepath.Join(s.root, name))
}

// Path returns the path an artifact is stored at, regardless of whether it exists.
// It returns an empty string for coordinates that do not map to a path below the root.
func (s *Store) Path(c coordinate.Coordinate) string {
	path, err := s.path(c)
	if err != nil {
		return ""
	}
	return path
}

func (s *Store) path(c coordinate.Coordinate) (string, error) {
	if err := c.Validate(); err != nil {
		return "", fmt.Errorf("invalid artifact %s: %w", c, err)
	}
	path := filepath.Join(s.root, filepath.FromSlash(c.RelativePath()))
	if !Within(s.root, path) {
		return "", fmt.Errorf("artifact %s is outside of the cache root", c)
	}
	return path, nil
}

// Within reports whether path is located below root. Both must be clean.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// FindFile returns the path of a previously stored artifact.
// It returns [repository.ErrNotFound] if the artifact was never stored.
func (s *Store) FindFile(_ context.Context, c coordinate.Coordinate) (string, error) {
	path, err := s.path(c)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("unable to stat cached artifact %s: %w", c, err)
	}
	if !fi.Mode().IsRegular() {
		return "", fmt.Errorf("cached artifact %s is not a regular file: %s", c, path)
	}
	return path, nil
}

// Store writes the content of r as artifact c and returns its path.
// The content and its digest file are written to temporary files next to their
// destinations. The digest file is moved into place after the content.
func (s *Store) Store(ctx context.Context, c coordinate.Coordinate, r io.Reader) (_ string, err error) {
	path, err := s.path(c)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary artifact file: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, os.Remove(tmp.Name()))
		}
	}()

	digester := digest.Canonical.Digester()
	buf := ioBufPool.Get().(*[]byte)
	defer ioBufPool.Put(buf)
	size, err := io.CopyBuffer(io.MultiWriter(tmp, digester.Hash()), r, *buf)
	if err != nil {
		return "", errors.Join(fmt.Errorf("failed to write artifact %s: %w", c, err), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary artifact file: %w", err)
	}

	dgst := digester.Digest()
	tmpDigest, err := writeTemp(dir, filepath.Base(path)+DigestSuffix, []byte(dgst.String()))
	if err != nil {
		return "", fmt.Errorf("failed to write digest of artifact %s: %w", c, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", errors.Join(fmt.Errorf("failed to move artifact %s into place: %w", c, err), os.Remove(tmpDigest))
	}
	if err := os.Rename(tmpDigest, path+DigestSuffix); err != nil {
		// the content is in place, a digest file left from an earlier write would not match it
		return "", errors.Join(
			fmt.Errorf("failed to move digest of artifact %s into place: %w", c, err),
			os.Remove(tmpDigest),
			ignoreNotExist(os.Remove(path+DigestSuffix)),
		)
	}

	slogcontext.FromCtx(ctx).Log(ctx, slog.LevelDebug, "stored artifact",
		slog.String("realm", Realm),
		slog.String("artifact", c.String()),
		slog.String("path", path),
		slog.String("digest", dgst.String()),
		slog.Int64("size", size),
	)
	return path, nil
}

func writeTemp(dir, name string, data []byte) (_ string, err error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			err = errors.Join(err, os.Remove(f.Name()))
		}
	}()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func ignoreNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Digest returns the recorded digest of a stored artifact.
func (s *Store) Digest(c coordinate.Coordinate) (digest.Digest, error) {
	path, err := s.path(c)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path + DigestSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("no digest recorded for %s: %w", c, repository.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read digest of %s: %w", c, err)
	}
	dgst, err := digest.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("invalid digest recorded for %s: %w", c, err)
	}
	return dgst, nil
}

// Verify checks the content of a stored artifact against its recorded digest.
func (s *Store) Verify(c coordinate.Coordinate) (err error) {
	dgst, err := s.Digest(c)
	if err != nil {
		return err
	}
	f, err := os.Open(s.Path(c))
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", c, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	verifier := dgst.Verifier()
	buf := ioBufPool.Get().(*[]byte)
	defer ioBufPool.Put(buf)
	if _, err := io.CopyBuffer(verifier, f, *buf); err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", c, err)
	}
	if !verifier.Verified() {
		return fmt.Errorf("artifact %s does not match %s: %w", c, dgst, ErrDigestMismatch)
	}
	return nil
}
