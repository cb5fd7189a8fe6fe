package local

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ocm.software/open-component-model/deobf/cache"
	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/graph"
)

// ignoredSuffixes are sidecar files that are never artifacts on their own.
var ignoredSuffixes = []string{".sha1", ".sha256", ".sha512", ".md5", ".asc", ".lastUpdated"}

func normalizeRoots(roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one repository root is required")
	}
	normalized := make([]string, 0, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("unable to get absolute path of %q: %w", root, err)
		}
		normalized = append(normalized, abs)
	}
	return normalized, nil
}

// moduleDir returns the first root directory containing the module, or an empty string.
func moduleDir(roots []string, module coordinate.Coordinate) (string, error) {
	if err := module.Validate(); err != nil {
		return "", fmt.Errorf("invalid module %s: %w", module.ModuleString(), err)
	}
	for _, root := range roots {
		dir := filepath.Join(root, filepath.FromSlash(module.Dir()))
		if !cache.Within(root, dir) {
			return "", fmt.Errorf("module %s is outside of repository root %s", module.ModuleString(), root)
		}
		fi, err := os.Stat(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("unable to stat module directory %s: %w", dir, err)
		}
		if fi.IsDir() {
			return dir, nil
		}
	}
	return "", nil
}

// listArtifacts returns the artifact files of a module directory in file name order.
// Files are attributed to the module by the name pattern <name>-<version>[-<classifier>].<ext>.
func listArtifacts(dir string, module coordinate.Coordinate) ([]graph.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to list module directory %s: %w", dir, err)
	}
	prefix := module.Name + "-" + module.Version
	var artifacts []graph.Artifact
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		c, ok := parseFileName(entry.Name(), prefix)
		if !ok {
			continue
		}
		c.Group, c.Name, c.Version = module.Group, module.Name, module.Version
		artifacts = append(artifacts, graph.Artifact{
			Path:       filepath.Join(dir, entry.Name()),
			Coordinate: c,
		})
	}
	return artifacts, nil
}

func parseFileName(name, prefix string) (coordinate.Coordinate, bool) {
	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(name, suffix) {
			return coordinate.Coordinate{}, false
		}
	}
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok || rest == "" {
		return coordinate.Coordinate{}, false
	}
	var c coordinate.Coordinate
	switch rest[0] {
	case '.':
		c.Extension = rest[1:]
	case '-':
		classifier, ext, found := strings.Cut(rest[1:], ".")
		if !found || classifier == "" {
			return coordinate.Coordinate{}, false
		}
		c.Classifier, c.Extension = classifier, ext
	default:
		return coordinate.Coordinate{}, false
	}
	if c.Extension == "" {
		return coordinate.Coordinate{}, false
	}
	return c, true
}
