package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/config"
	"gitlab.bluewillows.net/root/ddnsweaver/providers/cloudflare"
)

// newCmdConfigPath prints the configuration file ddnsweaver would load.
func newCmdConfigPath(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config-path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ResolvePath(opts.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// newCmdVerify checks that the configured API token is valid and active.
func newCmdVerify(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the Cloudflare API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			p, err := cloudflare.New(providerName, cfg.CloudflareConfig(),
				cloudflare.WithProviderLogger(logger),
			)
			if err != nil {
				return fmt.Errorf("creating provider: %w", err)
			}

			status, err := p.VerifyToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("verifying token: %w", err)
			}

			logger.Debug("token verified",
				slog.String("token_id", status.ID),
				slog.String("status", status.Status),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "token %s is %s", status.ID, status.Status)
			if status.ExpiresOn != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (expires %s)", status.ExpiresOn)
			}
			fmt.Fprintln(cmd.OutOrStdout())

			return p.Ping(cmd.Context())
		},
	}
}

// newCmdVersion prints the application version.
func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ddnsweaver version %s (built %s)\n", Version, BuildDate)
		},
	}
}
