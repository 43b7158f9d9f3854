// ddnsweaver keeps Cloudflare DNS records pointed at this machine's public
// IPv4 and IPv6 addresses. Each invocation performs one full update run.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/config"
	"gitlab.bluewillows.net/root/ddnsweaver/internal/metrics"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	dryRun     bool
	logLevel   string
	logFormat  string
}

// overrides converts the flags explicitly set on cmd into config overrides.
func (o *rootOptions) overrides(cmd *cobra.Command) config.Overrides {
	var ov config.Overrides
	if cmd.Flags().Changed("dry-run") {
		dryRun := o.dryRun
		ov.DryRun = &dryRun
	}
	ov.LogLevel = o.logLevel
	ov.LogFormat = o.logFormat
	return ov
}

// load reads the configuration and installs the configured logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath, o.overrides(cmd))
	if err != nil {
		return nil, nil, err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ddnsweaver",
		Short: "Update Cloudflare DNS records with this host's public addresses",
		Long: `ddnsweaver determines the public IPv4 and IPv6 addresses of this host and
patches every configured A and AAAA record at Cloudflare. It runs once and
exits; schedule it with cron or a systemd timer.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			result, err := runOnce(cmd.Context(), cfg, logger)
			if result != nil {
				fmt.Fprint(cmd.OutOrStdout(), result.Summary())
			}
			return err
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the configuration file (env DDNSWEAVER_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (auto|json|text)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Log intended changes without applying them")

	cmd.AddCommand(newCmdConfigPath(opts))
	cmd.AddCommand(newCmdVerify(opts))
	cmd.AddCommand(newCmdVersion())

	return cmd
}

func main() {
	metrics.SetBuildInfo(Version, runtime.Version())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, verr.Error())
		} else {
			slog.Error("fatal error", slog.String("error", err.Error()))
		}
		stop()
		os.Exit(1)
	}
}
