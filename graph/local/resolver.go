// Package local resolves dependency configurations against directories laid out
// in the Maven repository format:
//
//	<root>/<group with dots as slashes>/<name>/<version>/<name>-<version>[-<classifier>].<ext>
//
// Transitive module dependencies are read from the module's pom file and kept in a
// directed acyclic graph. Only the declared dependencies of a configuration become
// first-level modules, transitive ones are reachable through [Graph.Dependencies].
package local

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"ocm.software/open-component-model/bindings/go/dag"

	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/graph"
)

const Realm = "graph/local"

// DefaultScopes are the pom dependency scopes followed for transitive resolution.
var DefaultScopes = []string{"compile", "runtime"}

const defaultConcurrency = 8

const (
	attributeModule = "module"
	attributeScope  = "scope"
)

type ResolverOptions struct {
	// Roots are searched in order, the first root containing a module directory wins.
	Roots []string
	// Scopes restricts the followed pom dependency scopes, defaults to DefaultScopes.
	Scopes []string
	// Concurrency limits the number of modules scanned in parallel.
	Concurrency int
}

// Resolver resolves configurations against local Maven-layout directories.
type Resolver struct {
	roots       []string
	scopes      map[string]struct{}
	concurrency int
}

var _ graph.Resolver = (*Resolver)(nil)

func NewResolver(opts ResolverOptions) (*Resolver, error) {
	roots, err := normalizeRoots(opts.Roots)
	if err != nil {
		return nil, err
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	r := &Resolver{
		roots:       roots,
		scopes:      make(map[string]struct{}, len(scopes)),
		concurrency: opts.Concurrency,
	}
	for _, scope := range scopes {
		r.scopes[scope] = struct{}{}
	}
	if r.concurrency <= 0 {
		r.concurrency = defaultConcurrency
	}
	return r, nil
}

// Graph is a resolved configuration.
type Graph struct {
	name    string
	dag     *dag.DirectedAcyclicGraph[string]
	modules map[string]*graph.Module
	edges   map[string][]string
	first   []*graph.Module
}

var _ graph.Graph = (*Graph)(nil)

func (g *Graph) FirstLevelModules() iter.Seq[*graph.Module] {
	return func(yield func(*graph.Module) bool) {
		for _, m := range g.first {
			if !yield(m) {
				return
			}
		}
	}
}

// Module returns the resolved module with the given group:name:version.
func (g *Graph) Module(id string) (*graph.Module, bool) {
	m, ok := g.modules[id]
	return m, ok
}

// Dependencies returns the direct dependencies of a resolved module.
func (g *Graph) Dependencies(id string) []*graph.Module {
	var deps []*graph.Module
	for _, to := range g.edges[id] {
		deps = append(deps, g.modules[to])
	}
	return deps
}

// Modules returns all resolved modules so that every module is listed after its dependencies.
func (g *Graph) Modules() ([]*graph.Module, error) {
	order, err := g.dag.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("sorting modules of configuration %q failed: %w", g.name, err)
	}
	modules := make([]*graph.Module, 0, len(order))
	for _, id := range order {
		if m, ok := g.modules[id]; ok {
			modules = append(modules, m)
		}
	}
	return modules, nil
}

type scanned struct {
	module *graph.Module
	deps   []dependency
}

// ResolveGraph resolves the declared dependencies of the configuration and all their
// transitive module dependencies. Declared modules that can not be found in any root are
// logged and left out of the graph.
func (r *Resolver) ResolveGraph(ctx context.Context, cfg graph.Configuration) (graph.Graph, error) {
	logger := slogcontext.FromCtx(ctx).With(slog.String("realm", Realm), slog.String("configuration", cfg.Name))

	g := &Graph{
		name:    cfg.Name,
		dag:     dag.NewDirectedAcyclicGraph[string](),
		modules: map[string]*graph.Module{},
		edges:   map[string][]string{},
	}

	var mu sync.Mutex
	results := map[string]*scanned{}
	scan := func(ctx context.Context, modules []coordinate.Coordinate) error {
		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(r.concurrency)
		for _, module := range modules {
			eg.Go(func() error {
				s, err := r.scan(egctx, logger, module)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				results[module.ModuleString()] = s
				return nil
			})
		}
		return eg.Wait()
	}

	declared := make([]coordinate.Coordinate, 0, len(cfg.Dependencies))
	seen := map[string]struct{}{}
	for _, d := range cfg.Dependencies {
		module := d.Module()
		if _, ok := seen[module.ModuleString()]; ok {
			continue
		}
		seen[module.ModuleString()] = struct{}{}
		declared = append(declared, module)
	}

	// breadth first, one errgroup per layer
	for layer := declared; len(layer) > 0; {
		if err := scan(ctx, layer); err != nil {
			return nil, fmt.Errorf("resolving configuration %q failed: %w", cfg.Name, err)
		}
		var next []coordinate.Coordinate
		for _, module := range layer {
			s := results[module.ModuleString()]
			if s == nil {
				continue
			}
			for _, d := range s.deps {
				id := d.Module.ModuleString()
				if _, ok := seen[id]; ok {
					continue
				}
				seen[id] = struct{}{}
				next = append(next, d.Module)
			}
		}
		layer = next
	}

	ids := slices.Sorted(maps.Keys(results))
	for _, id := range ids {
		s := results[id]
		if s == nil {
			continue
		}
		g.modules[id] = s.module
		if err := g.dag.AddVertex(id, map[string]any{attributeModule: s.module}); err != nil {
			return nil, fmt.Errorf("adding module %s to graph failed: %w", id, err)
		}
	}
	for _, id := range ids {
		s := results[id]
		if s == nil {
			continue
		}
		for _, d := range s.deps {
			to := d.Module.ModuleString()
			if _, ok := g.modules[to]; !ok || to == id || slices.Contains(g.edges[id], to) {
				continue
			}
			if err := g.dag.AddEdge(id, to, map[string]any{attributeScope: d.Scope}); err != nil {
				var cycle *dag.CycleError
				if errors.As(err, &cycle) {
					logger.WarnContext(ctx, "ignoring cyclic module dependency", slog.String("from", id), slog.String("to", to))
					continue
				}
				return nil, fmt.Errorf("adding dependency %s -> %s failed: %w", id, to, err)
			}
			g.edges[id] = append(g.edges[id], to)
		}
	}

	for _, module := range declared {
		if m, ok := g.modules[module.ModuleString()]; ok {
			g.first = append(g.first, m)
		} else {
			logger.WarnContext(ctx, "declared module not found in any root", slog.String("module", module.ModuleString()))
		}
	}

	logger.Log(ctx, slog.LevelDebug, "resolved configuration",
		slog.Int("declared", len(declared)),
		slog.Int("first-level", len(g.first)),
		slog.Int("modules", len(g.modules)),
	)
	return g, nil
}

// scan locates a module and reads its artifacts and pom dependencies.
// It returns nil if the module does not exist in any root.
func (r *Resolver) scan(ctx context.Context, logger *slog.Logger, module coordinate.Coordinate) (*scanned, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := moduleDir(r.roots, module)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		logger.Log(ctx, slog.LevelDebug, "module not found", slog.String("module", module.ModuleString()))
		return nil, nil
	}
	artifacts, err := listArtifacts(dir, module)
	if err != nil {
		return nil, err
	}
	s := &scanned{module: &graph.Module{Coordinate: module, Artifacts: artifacts}}

	for _, a := range artifacts {
		if a.Coordinate.Extension != "pom" || a.Coordinate.Classifier != "" {
			continue
		}
		deps, skipped, err := readPOMDependencies(a.Path, module, r.scopes)
		if err != nil {
			return nil, err
		}
		for _, dep := range skipped {
			logger.Log(ctx, slog.LevelDebug, "skipping unresolvable dependency",
				slog.String("module", module.ModuleString()), slog.String("dependency", dep))
		}
		s.deps = deps
		break
	}
	return s, nil
}
