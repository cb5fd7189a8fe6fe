// Package graph defines the contract of the engine that resolves a declared
// set of dependencies into concrete artifact files.
package graph

import (
	"context"
	"iter"
	"slices"

	"ocm.software/open-component-model/deobf/coordinate"
)

// Configuration is a named, immutable set of declared dependencies.
// Only group, name and version of a declared dependency are significant.
type Configuration struct {
	Name         string
	Dependencies []coordinate.Coordinate
}

// Artifact is a concrete file of a resolved module.
type Artifact struct {
	Path       string
	Coordinate coordinate.Coordinate
}

// Module is a resolved module together with its artifact files.
type Module struct {
	Coordinate coordinate.Coordinate
	Artifacts  []Artifact
}

// Graph is the result of resolving a [Configuration].
// Implementations must be safe for concurrent reads.
type Graph interface {
	// FirstLevelModules enumerates the modules that were declared directly in the
	// configuration, in the order of the resolver.
	FirstLevelModules() iter.Seq[*Module]
}

// Resolver resolves configurations into graphs. Resolving is expected to be
// expensive; callers memoize the result.
type Resolver interface {
	ResolveGraph(ctx context.Context, cfg Configuration) (Graph, error)
}

// ResolverFunc adapts a plain function to a [Resolver].
type ResolverFunc func(ctx context.Context, cfg Configuration) (Graph, error)

func (f ResolverFunc) ResolveGraph(ctx context.Context, cfg Configuration) (Graph, error) {
	return f(ctx, cfg)
}

// Static is a Graph backed by a fixed list of first-level modules.
type Static []*Module

var _ Graph = Static(nil)

func (s Static) FirstLevelModules() iter.Seq[*Module] {
	return slices.Values(s)
}

// MatchingArtifacts enumerates the artifacts of first-level modules of g that
// belong to a module selected by moduleFilter and are themselves selected by
// artifactFilter. Enumeration order follows the graph.
func MatchingArtifacts(g Graph, moduleFilter, artifactFilter coordinate.Filter) iter.Seq2[string, coordinate.Coordinate] {
	return func(yield func(string, coordinate.Coordinate) bool) {
		for module := range g.FirstLevelModules() {
			if !moduleFilter(module.Coordinate) {
				continue
			}
			for _, artifact := range module.Artifacts {
				if !artifactFilter(artifact.Coordinate) {
					continue
				}
				if !yield(artifact.Path, artifact.Coordinate) {
					return
				}
			}
		}
	}
}
