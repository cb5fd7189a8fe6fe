package encode

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/deobf/cli/internal/enum"
	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/mapping"
)

const (
	FlagChannel        = "channel"
	FlagMappingVersion = "mapping-version"
	FlagSide           = "side"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encode <coordinate>",
		Args:    cobra.ExactArgs(1),
		Short:   "Print the mapped notation of a coordinate",
		Example: `  deobf encode net.mc:client:1.20.1 --channel official --mapping-version 2023.10 --side server`,
		RunE:    Encode,

		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(FlagChannel, "", "name of the mapping channel")
	cmd.Flags().String(FlagMappingVersion, "", "version of the mappings")
	enum.Var(cmd.Flags(), FlagSide, []string{
		mapping.SideClient.String(),
		mapping.SideServer.String(),
		mapping.SideJoined.String(),
	}, "distribution side the mappings apply to")
	_ = cmd.MarkFlagRequired(FlagChannel)
	_ = cmd.MarkFlagRequired(FlagMappingVersion)
	return cmd
}

func Encode(cmd *cobra.Command, args []string) error {
	c, err := coordinate.Parse(args[0])
	if err != nil {
		return err
	}
	if mapping.IsSynthetic(c.Version) {
		return fmt.Errorf("version %q is already mapped", c.Version)
	}

	var spec mapping.Spec
	if spec.Channel, err = cmd.Flags().GetString(FlagChannel); err != nil {
		return err
	}
	if spec.Version, err = cmd.Flags().GetString(FlagMappingVersion); err != nil {
		return err
	}
	side, err := enum.Get(cmd.Flags(), FlagSide)
	if err != nil {
		return err
	}
	if spec.Side, err = mapping.ParseSide(side); err != nil {
		return err
	}

	encoded := c.WithVersion(mapping.Encode(c.Version, spec))
	if decoded, _, err := mapping.Decode(encoded.Version); err != nil || decoded != spec {
		return fmt.Errorf("channel %q and mapping version %q can not be encoded unambiguously", spec.Channel, spec.Version)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
	return err
}
