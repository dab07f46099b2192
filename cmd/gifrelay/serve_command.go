package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gifrelay/internal/relayrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay in front of the animation API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.Server.Bind = value
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			return relayrun.Run(cmd.Context(), cfg, relayrun.Options{
				LogLevel:    logLevel,
				Development: development,
				Ready: func(addr string) {
					fmt.Fprintf(cmd.OutOrStdout(), "gifrelay listening on http://%s\n", addr)
				},
			})
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Enable development mode (gin debug output, caller info)")
	return cmd
}
