// Package cli wires the resolution engine into a command-line tool for
// inspecting block definitions and dry-running parameter normalization.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/stepkit/stepkit/pkg/config"
	"github.com/stepkit/stepkit/pkg/logger"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "stepkit",
		Short:        "Inspect blocks and resolve their configuration",
		SilenceUsage: true,
	}

	root.AddCommand(
		BlocksCmd(),
		NormalizeCmd(),
	)

	return root
}

// setupContext loads the runtime configuration and attaches a logger to
// the command context. Every subcommand runs through this.
func setupContext(cmd *cobra.Command) (context.Context, *config.Config, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.Log.Level)
	logCfg.JSON = cfg.Log.JSON
	logCfg.Output = cmd.ErrOrStderr()
	log := logger.NewLogger(logCfg)
	return logger.ContextWithLogger(ctx, log), cfg, nil
}
