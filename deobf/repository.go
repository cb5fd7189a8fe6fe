package deobf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/graph"
	"ocm.software/open-component-model/deobf/mapping"
	"ocm.software/open-component-model/deobf/repository"
	"ocm.software/open-component-model/deobf/transform"
)

const Realm = "deobf"

const (
	// BinaryExtension is the only extension served by the repository.
	BinaryExtension = "jar"
	// SourcesClassifier marks source artifacts, which are never remapped.
	SourcesClassifier = "sources"
)

type Options struct {
	// Configuration declares the dependencies original artifacts are resolved from.
	Configuration graph.Configuration
	Resolver      graph.Resolver
	Transformer   transform.Transformer
	// Sink receives the produced artifacts, usually a cache.Store.
	Sink transform.Sink
}

// Repository serves deobfuscated artifacts for the dependencies of one configuration.
// It is safe for concurrent use.
type Repository struct {
	cfg         graph.Configuration
	resolver    graph.Resolver
	transformer transform.Transformer
	sink        transform.Sink

	// mu guards resolved; it is held for the whole resolution so that
	// concurrent lookups wait for a single resolution.
	mu          sync.Mutex
	resolved    graph.Graph
	resolutions atomic.Int64
}

var _ repository.Repository = (*Repository)(nil)

func New(opts Options) (*Repository, error) {
	var errs []error
	if opts.Resolver == nil {
		errs = append(errs, errors.New("resolver is required"))
	}
	if opts.Transformer == nil {
		errs = append(errs, errors.New("transformer is required"))
	}
	if opts.Sink == nil {
		errs = append(errs, errors.New("sink is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid deobfuscating repository %q: %w", opts.Configuration.Name, errors.Join(errs...))
	}
	return &Repository{
		cfg:         opts.Configuration,
		resolver:    opts.Resolver,
		transformer: opts.Transformer,
		sink:        opts.Sink,
	}, nil
}

// Name returns the name of the configuration backing the repository.
func (r *Repository) Name() string {
	return r.cfg.Name
}

// Sink returns the destination of artifacts produced by the repository.
func (r *Repository) Sink() transform.Sink {
	return r.sink
}

// Resolutions returns how many times the resolver was invoked.
func (r *Repository) Resolutions() int64 {
	return r.resolutions.Load()
}

// Original decodes a requested coordinate into the coordinate of the original artifact
// and the mapping to apply. It reports ok=false if the coordinate is not served by
// any deobfuscating repository.
func Original(requested coordinate.Coordinate) (original coordinate.Coordinate, spec mapping.Spec, ok bool, err error) {
	spec, ok, err = mapping.Decode(requested.Version)
	if err != nil || !ok {
		return coordinate.Coordinate{}, mapping.Spec{}, ok, err
	}
	if requested.Extension != BinaryExtension || requested.Classifier == SourcesClassifier {
		return coordinate.Coordinate{}, mapping.Spec{}, false, nil
	}
	// Some producers of synthetic coordinates leak the marker into the group.
	original = requested.
		WithVersion(mapping.Strip(requested.Version)).
		WithGroup(strings.ReplaceAll(requested.Group, mapping.Marker, ""))
	return original, spec, true, nil
}

// FindFile returns the deobfuscated artifact for a synthetic coordinate, producing it
// with the transformer if needed. Coordinates this repository does not serve, and
// originals missing from the configuration, are reported as [repository.ErrNotFound].
func (r *Repository) FindFile(ctx context.Context, requested coordinate.Coordinate) (string, error) {
	logger := slogcontext.FromCtx(ctx).With(
		slog.String("realm", Realm),
		slog.String("configuration", r.cfg.Name),
		slog.String("artifact", requested.String()),
	)

	original, spec, ok, err := Original(requested)
	if err != nil {
		return "", fmt.Errorf("decoding %s failed: %w", requested, err)
	}
	if !ok {
		return "", repository.ErrNotFound
	}

	input, err := r.findOriginal(ctx, original)
	if err != nil {
		return "", err
	}
	if input == "" {
		logger.Log(ctx, slog.LevelDebug, "original artifact not declared", slog.String("original", original.String()))
		return "", repository.ErrNotFound
	}

	logger.Log(ctx, slog.LevelDebug, "deobfuscating artifact",
		slog.String("input", input),
		slog.String("mapping", spec.String()),
	)
	path, err := r.transformer.Binary(ctx, transform.Request{
		Input:   input,
		Target:  requested,
		Mapping: spec,
	}, r.sink)
	if err != nil {
		return "", fmt.Errorf("deobfuscating %s with %s failed: %w", original, spec, err)
	}
	return path, nil
}

// findOriginal returns the first existing file of the first-level modules matching
// original, or an empty path if there is none.
func (r *Repository) findOriginal(ctx context.Context, original coordinate.Coordinate) (string, error) {
	g, err := r.resolve(ctx)
	if err != nil {
		return "", err
	}
	for path := range graph.MatchingArtifacts(g, coordinate.SameModule(original), coordinate.Exactly(original)) {
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", nil
}

// resolve resolves the configuration on first use. Failed resolutions are not kept.
func (r *Repository) resolve(ctx context.Context) (graph.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved != nil {
		return r.resolved, nil
	}

	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm), slog.String("configuration", r.cfg.Name))
	logger.InfoContext(ctx, "resolving configuration", slog.Int("dependencies", len(r.cfg.Dependencies)))

	r.resolutions.Add(1)
	g, err := r.resolver.ResolveGraph(ctx, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("resolving configuration %q failed: %w", r.cfg.Name, err)
	}
	if g == nil {
		return nil, fmt.Errorf("resolving configuration %q returned no graph", r.cfg.Name)
	}
	r.resolved = g
	return g, nil
}
