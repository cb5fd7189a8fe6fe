// Package transform defines the contract of transformers that produce
// deobfuscated binaries from original artifact files.
package transform

import (
	"context"
	"io"

	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/mapping"
)

// Request describes a single deobfuscation.
type Request struct {
	// Input is the path of the original, obfuscated file.
	Input string
	// Target is the coordinate the result is requested and stored under.
	Target coordinate.Coordinate
	// Mapping selects the mapping table and side to apply.
	Mapping mapping.Spec
}

// Sink is the destination of produced artifacts, typically the cache of the
// repository that requested the transformation.
type Sink interface {
	// Path returns the path an artifact is (or will be) stored at.
	Path(c coordinate.Coordinate) string
	// Store writes the content of r as artifact c and returns its path.
	Store(ctx context.Context, c coordinate.Coordinate, r io.Reader) (string, error)
}

// Transformer produces the deobfuscated binary for a request, places it into
// the sink and returns its path.
type Transformer interface {
	Binary(ctx context.Context, req Request, sink Sink) (string, error)
}

// Func adapts a plain function to a [Transformer].
type Func func(ctx context.Context, req Request, sink Sink) (string, error)

func (f Func) Binary(ctx context.Context, req Request, sink Sink) (string, error) {
	return f(ctx, req, sink)
}
