package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gifrelay/internal/deps"
	"gifrelay/internal/relayclient"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check relay health and local dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			serverURL := cfg.Client.ServerURL
			if value := strings.TrimSpace(server); value != "" {
				serverURL = value
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Relay", colorize) {
				fmt.Fprintln(out, line)
			}

			client, err := relayclient.New(serverURL, 5*time.Second)
			if err != nil {
				return err
			}
			checkCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			switch err := client.Health(checkCtx); {
			case err == nil:
				fmt.Fprintln(out, renderStatusLine("Relay", statusOK, client.BaseURL(), colorize))
			case relayclient.IsUnavailable(err):
				fmt.Fprintln(out, renderStatusLine("Relay", statusError, "not reachable at "+client.BaseURL(), colorize))
			default:
				fmt.Fprintln(out, renderStatusLine("Relay", statusWarn, err.Error(), colorize))
			}

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, status := range deps.CheckBinaries([]deps.Requirement{deps.FFmpegRequirement(cfg.Client.FFmpegBinary)}) {
				kind := statusOK
				message := status.Command
				if !status.Available {
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
					message = status.Detail
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "Relay URL (overrides client.server_url)")
	return cmd
}
