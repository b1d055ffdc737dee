package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"launchdash/internal/launch"
	"launchdash/internal/logging"
	"launchdash/internal/metrics"
	"launchdash/internal/server"
	"launchdash/internal/source"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the dataset and serve the dashboard",
	Long: `Loads the launch dataset once and serves the dashboard, the view API under
/api/v1/views, Prometheus metrics on /metrics and a liveness probe on /healthz.

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "Listen address (default :8050)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		cfg.Server.Addr = serveFlags.addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewRecorder()
	var ds *launch.Dataset
	err = metrics.Time(ctx, recorder, "dataset.load", func() error {
		var loadErr error
		ds, loadErr = source.Load(ctx, cfg.Source)
		return loadErr
	})
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		SliderStep:      cfg.Dashboard.SliderStep,
		Dataset:         ds,
		Metrics:         recorder,
	})
	if err != nil {
		return err
	}
	logging.New("serve").Info("dashboard ready", "addr", cfg.Server.Addr, "records", ds.Len())
	return srv.Run(ctx)
}
