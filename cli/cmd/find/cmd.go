package find

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	ctxconfig "ocm.software/open-component-model/deobf/cli/internal/context"
	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/repository"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "find <coordinate>",
		Args:  cobra.ExactArgs(1),
		Short: "Print the path of an artifact resolved through the repository chain",
		Example: `  deobf find net.mc:client:1.20.1_mapped_official_2023.10
  deobf find net.mc:client:1.20.1_mapped_official_2023.10_server:natives-linux@jar`,
		RunE:              FindFile,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
}

func FindFile(cmd *cobra.Command, args []string) error {
	c, err := coordinate.Parse(args[0])
	if err != nil {
		return err
	}
	cfg := ctxconfig.Configuration(cmd.Context())
	if cfg == nil {
		return errors.New("no configuration available, use --config to point to a configuration file")
	}
	chain, err := NewChain(cfg)
	if err != nil {
		return fmt.Errorf("could not set up repositories: %w", err)
	}

	path, err := chain.FindFile(cmd.Context(), c)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s not found", c)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
