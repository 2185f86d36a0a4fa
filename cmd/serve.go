package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mtb-build/mtb/internal/build"
	"github.com/mtb-build/mtb/internal/monitoring"
	"github.com/mtb-build/mtb/internal/server"
	"github.com/mtb-build/mtb/internal/version"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var (
		port     int
		host     string
		noReload bool
		open     bool
	)

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s", "dev"},
		Short:   "Build, watch and serve the site with live reload",
		Long: `Build the site, serve the output directory and rebuild on every change.
Connected browsers reload automatically after each build; while the last build
is failing they show an error overlay instead of the site.

Endpoints:
  /                 the built site (pretty URLs: /about serves about.html)
  /ws               live-reload WebSocket
  /api/components   component list with dependencies (JSON)
  /api/status       last build summary (JSON)
  /health           health checks
  /metrics          Prometheus metrics

Examples:
  mtb serve
  mtb serve --port 8080 --open
  mtb serve --host 0.0.0.0 --no-reload`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if noReload {
				cfg.Server.LiveReload = false
			}
			if open {
				cfg.Server.Open = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metrics := monitoring.NewMetrics()
			builder := build.New(cfg, nil, logger, metrics)
			defer builder.Close()
			builder.AddCallback(reportBuild(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.Directories.Output))

			srv := server.New(cfg, builder, logger, metrics, version.GetVersion())

			session, err := startDevLoop(ctx, cfg, builder, logger, metrics)
			if err != nil {
				return err
			}

			watchErr := make(chan error, 1)
			go func() {
				watchErr <- session.Run(ctx)
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at %s\n", cfg.Directories.Output, srv.URL())
			if err := srv.Start(ctx); err != nil {
				stop()
				<-watchErr
				return err
			}

			stop()
			return <-watchErr
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "port to serve on (overrides server.port)")
	cmd.Flags().StringVar(&host, "host", "localhost", "host to bind to (overrides server.host)")
	cmd.Flags().BoolVar(&noReload, "no-reload", false, "disable live reload")
	cmd.Flags().BoolVar(&open, "open", false, "open the site in a browser")
	AddFlagValidation(cmd, "port", ValidatePort)

	return cmd
}
