package find

import (
	"errors"
	"fmt"

	"ocm.software/open-component-model/deobf/cache"
	v1 "ocm.software/open-component-model/deobf/config/v1"
	"ocm.software/open-component-model/deobf/deobf"
	"ocm.software/open-component-model/deobf/graph"
	"ocm.software/open-component-model/deobf/graph/local"
	"ocm.software/open-component-model/deobf/repository"
	"ocm.software/open-component-model/deobf/transform/command"
)

// NewChain builds the repository chain of a configuration file. Every configuration
// contributes its cache followed by its deobfuscating repository, the local
// repositories come last.
func NewChain(cfg *v1.Config) (*repository.Chain, error) {
	if len(cfg.Repositories) == 0 {
		return nil, errors.New("no repositories configured")
	}
	store, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, err
	}
	resolver, err := local.NewResolver(local.ResolverOptions{Roots: cfg.Repositories})
	if err != nil {
		return nil, err
	}
	transformer, err := command.New(command.Options{
		Command: cfg.Transformer.Command,
		Timeout: cfg.Transformer.Timeout.Value(),
	})
	if err != nil {
		return nil, err
	}
	plain, err := local.NewRepository(cfg.Repositories...)
	if err != nil {
		return nil, err
	}

	var entries []repository.Entry
	for _, c := range cfg.Configurations {
		deps, err := c.Coordinates()
		if err != nil {
			return nil, err
		}
		sink, err := store.Sub(c.Name)
		if err != nil {
			return nil, fmt.Errorf("configuration %q: %w", c.Name, err)
		}
		repo, err := deobf.New(deobf.Options{
			Configuration: graph.Configuration{Name: c.Name, Dependencies: deps},
			Resolver:      resolver,
			Transformer:   transformer,
			Sink:          sink,
		})
		if err != nil {
			return nil, fmt.Errorf("configuration %q: %w", c.Name, err)
		}
		entries = append(entries,
			repository.Entry{Name: c.Name + "/cache", Repository: sink, Patterns: c.Components},
			repository.Entry{Name: c.Name, Repository: repo, Patterns: c.Components},
		)
	}
	entries = append(entries, repository.Entry{Name: "local", Repository: plain})

	return repository.NewChain(entries...)
}
