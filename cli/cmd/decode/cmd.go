package decode

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"ocm.software/open-component-model/deobf/coordinate"
	"ocm.software/open-component-model/deobf/deobf"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <coordinate>...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Show the original coordinate and mappings of mapped coordinates",
		Long: `Show the original coordinate and mappings of mapped coordinates.

Coordinates that would not be served by a deobfuscating repository are listed
with an empty original coordinate.`,
		Example:           `  deobf decode net.mc:client:1.20.1_mapped_official_2023.10 net.mc:client:1.20.1_mapped_yarn_1.20.1+build.10_server`,
		RunE:              Decode,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
}

func Decode(cmd *cobra.Command, args []string) error {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Coordinate", "Original", "Channel", "Mapping Version", "Side"})

	var errs []error
	for _, arg := range args {
		c, err := coordinate.Parse(arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		original, spec, ok, err := deobf.Original(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
			continue
		}
		if !ok {
			t.AppendRow(table.Row{c.String(), "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{c.String(), original.String(), spec.Channel, spec.Version, spec.Side.String()})
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return errors.Join(errs...)
}
