package deps

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	ctxconfig "ocm.software/open-component-model/deobf/cli/internal/context"
	v1 "ocm.software/open-component-model/deobf/config/v1"
	"ocm.software/open-component-model/deobf/graph"
	"ocm.software/open-component-model/deobf/graph/local"
)

const ModuleFlag = "module"

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps [configuration]...",
		Short: "List the resolved module graph of configurations",
		Long: `List the resolved module graph of configurations.

Every module is listed after its dependencies. Declared modules are the ones
a deobfuscating repository serves artifacts of, all other modules are only
reachable through the pom files of the repositories. Without arguments all
configurations are listed.`,
		Example: `  deobf deps
  deobf deps minecraft --module net.mc:client:1.20.1`,
		RunE:              Dependencies,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(ModuleFlag, "", "only list the module with the given group:name:version")
	return cmd
}

func Dependencies(cmd *cobra.Command, args []string) error {
	cfg := ctxconfig.Configuration(cmd.Context())
	if cfg == nil {
		return errors.New("no configuration available, use --config to point to a configuration file")
	}
	only, err := cmd.Flags().GetString(ModuleFlag)
	if err != nil {
		return err
	}
	configurations, err := selectConfigurations(cfg, args)
	if err != nil {
		return err
	}
	resolver, err := local.NewResolver(local.ResolverOptions{Roots: cfg.Repositories})
	if err != nil {
		return fmt.Errorf("could not set up resolver: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Configuration", "Module", "Declared", "Artifacts", "Dependencies"})

	for _, c := range configurations {
		coordinates, err := c.Coordinates()
		if err != nil {
			return err
		}
		resolved, err := resolver.ResolveGraph(cmd.Context(), graph.Configuration{Name: c.Name, Dependencies: coordinates})
		if err != nil {
			return err
		}
		g, ok := resolved.(*local.Graph)
		if !ok {
			return fmt.Errorf("configuration %q: unexpected graph %T", c.Name, resolved)
		}

		declared := map[string]struct{}{}
		for m := range g.FirstLevelModules() {
			declared[m.Coordinate.ModuleString()] = struct{}{}
		}

		var modules []*graph.Module
		if only != "" {
			m, ok := g.Module(only)
			if !ok {
				return fmt.Errorf("module %s is not part of configuration %q", only, c.Name)
			}
			modules = []*graph.Module{m}
		} else if modules, err = g.Modules(); err != nil {
			return err
		}

		for _, m := range modules {
			id := m.Coordinate.ModuleString()
			_, isDeclared := declared[id]
			var deps []string
			for _, d := range g.Dependencies(id) {
				deps = append(deps, d.Coordinate.ModuleString())
			}
			t.AppendRow(table.Row{c.Name, id, isDeclared, len(m.Artifacts), strings.Join(deps, ", ")})
		}
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return nil
}

func selectConfigurations(cfg *v1.Config, names []string) ([]v1.Configuration, error) {
	if len(names) == 0 {
		return cfg.Configurations, nil
	}
	selected := make([]v1.Configuration, 0, len(names))
	for _, name := range names {
		i := slices.IndexFunc(cfg.Configurations, func(c v1.Configuration) bool { return c.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("unknown configuration %q", name)
		}
		selected = append(selected, cfg.Configurations[i])
	}
	return selected, nil
}
