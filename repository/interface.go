// Package repository defines the contract between repositories taking part in
// artifact resolution and the chain that consults them in order.
package repository

import (
	"context"
	"errors"

	"ocm.software/open-component-model/deobf/coordinate"
)

// ErrNotFound is returned by a [Repository] that does not serve a requested artifact.
// It is the signal to defer to the next repository and never indicates a failure.
var ErrNotFound = errors.New("artifact not found")

// Repository finds artifact files by coordinate.
type Repository interface {
	// FindFile returns the path of the file backing the given coordinate.
	// It returns an error matching ErrNotFound if the repository does not serve the coordinate.
	// Any other error aborts the resolution of the coordinate.
	FindFile(ctx context.Context, c coordinate.Coordinate) (string, error)
}

// Func adapts a plain function to a [Repository].
type Func func(ctx context.Context, c coordinate.Coordinate) (string, error)

func (f Func) FindFile(ctx context.Context, c coordinate.Coordinate) (string, error) {
	return f(ctx, c)
}
