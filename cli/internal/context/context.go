// Package context carries the state shared between the commands of the cli through
// the command context.
package context

import (
	"context"

	v1 "ocm.software/open-component-model/deobf/config/v1"
)

type configurationKey struct{}

// WithConfiguration returns a copy of ctx holding cfg.
func WithConfiguration(ctx context.Context, cfg *v1.Config) context.Context {
	return context.WithValue(ctx, configurationKey{}, cfg)
}

// Configuration returns the configuration stored in ctx, nil if there is none.
func Configuration(ctx context.Context) *v1.Config {
	cfg, _ := ctx.Value(configurationKey{}).(*v1.Config)
	return cfg
}
