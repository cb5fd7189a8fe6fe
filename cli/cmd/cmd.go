package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/deobf/cli/cmd/decode"
	"ocm.software/open-component-model/deobf/cli/cmd/deps"
	"ocm.software/open-component-model/deobf/cli/cmd/encode"
	"ocm.software/open-component-model/deobf/cli/cmd/find"
	"ocm.software/open-component-model/deobf/cli/cmd/version"
	ctxconfig "ocm.software/open-component-model/deobf/cli/internal/context"
	"ocm.software/open-component-model/deobf/cli/log"
	v1 "ocm.software/open-component-model/deobf/config/v1"
)

const (
	ConfigFlag = "config"
	CacheFlag  = "cache"
)

var configDefault = filepath.Join("$HOME", ".config", "deobf", "config.yaml")

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := New().Execute(); err != nil {
		os.Exit(1)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deobf [sub-command]",
		Short: "Resolve deobfuscated artifacts through a chain of repositories",
		Long: `deobf serves artifacts whose version carries a mapping suffix, e.g.

  net.mc:client:1.20.1_mapped_official_2023.10

by resolving the original artifact from the declared dependencies of a configuration
and transforming it with the configured deobfuscation command. All other
coordinates are deferred to the next repository of the chain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: PreRunE,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().String(ConfigFlag, configDefault, "path of the configuration file")
	cmd.PersistentFlags().String(CacheFlag, "", "root directory of the artifact cache, overriding the configuration")
	log.RegisterLoggingFlags(cmd.PersistentFlags())

	cmd.AddCommand(find.New())
	cmd.AddCommand(encode.New())
	cmd.AddCommand(decode.New())
	cmd.AddCommand(deps.New())
	cmd.AddCommand(version.New())
	return cmd
}

// PreRunE installs the base logger and loads the configuration into the command context.
// A missing configuration file is only an error if the path was set explicitly.
func PreRunE(cmd *cobra.Command, _ []string) error {
	logger, err := log.GetBaseLogger(cmd)
	if err != nil {
		return fmt.Errorf("could not retrieve logger: %w", err)
	}
	slog.SetDefault(logger)
	ctx := slogcontext.NewCtx(cmd.Context(), logger)
	cmd.SetContext(ctx)

	path, err := cmd.Flags().GetString(ConfigFlag)
	if err != nil {
		return err
	}
	if path, err = v1.ExpandPath(path); err != nil {
		return err
	}
	cfg, err := v1.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed(ConfigFlag) {
		logger.DebugContext(ctx, "no configuration file found", slog.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	if cacheRoot, _ := cmd.Flags().GetString(CacheFlag); cacheRoot != "" {
		if cfg.Cache, err = v1.ExpandPath(cacheRoot); err != nil {
			return err
		}
	}
	cmd.SetContext(ctxconfig.WithConfiguration(ctx, cfg))
	return nil
}
