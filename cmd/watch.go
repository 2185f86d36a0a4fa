package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mtb-build/mtb/internal/build"
	"github.com/mtb-build/mtb/internal/config"
	"github.com/mtb-build/mtb/internal/logging"
	"github.com/mtb-build/mtb/internal/monitoring"
	"github.com/mtb-build/mtb/internal/watcher"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w"},
		Short:   "Rebuild whenever components, pages or assets change",
		Long: `Build once, then watch the components, pages and assets directories and
rebuild on every change. Changes made while a build is running trigger exactly
one follow-up build.

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			builder := build.New(cfg, nil, logger, nil)
			defer builder.Close()
			builder.AddCallback(reportBuild(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Directories.Output))

			session, err := startDevLoop(ctx, cfg, builder, logger, nil)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes. Press Ctrl+C to stop.")
			return session.Run(ctx)
		},
	}
}

// startDevLoop runs the initial build and prepares a watch session that
// rebuilds through a BuildQueue. A failing initial build is reported but
// does not stop watching.
func startDevLoop(ctx context.Context, cfg *config.Config, builder *build.Builder, logger logging.Logger, metrics *monitoring.Metrics) (*watcher.Session, error) {
	if _, err := builder.Build(ctx); err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	queue := watcher.NewBuildQueue(func(ctx context.Context) error {
		_, err := builder.Build(ctx)
		return err
	}, watcher.DefaultFollowUpDelay, logger)

	session, err := watcher.NewSession(cfg, queue, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	return session, nil
}

// reportBuild prints a one-line summary after every build.
func reportBuild(out, errOut io.Writer, outputDir string) build.BuildCallback {
	return func(result *build.Result, err error) {
		printBuildResult(out, result, outputDir)
		if err != nil {
			printBuildFailures(errOut, result, err)
		}
	}
}
