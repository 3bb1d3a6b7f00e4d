package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/flowforge/flowforge"
	"github.com/flowforge/flowforge/codereview"
	"github.com/flowforge/flowforge/config"
	"github.com/flowforge/flowforge/server"
	"github.com/flowforge/flowforge/types"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")
		listen, _ := cmd.Flags().GetString("listen")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if listen != "" {
			cfg.Listen = listen
		}

		opts := []types.Option{
			types.WithMaxSteps(cfg.MaxSteps),
			types.WithMaxConcurrentRuns(cfg.MaxConcurrentRuns),
		}
		if cfg.Postgres != nil {
			opts = append(opts, types.WithPostgresConfig(&types.PostgresConfig{
				Host:     cfg.Postgres.Host,
				Port:     cfg.Postgres.Port,
				User:     cfg.Postgres.User,
				Password: cfg.Postgres.Password,
				Database: cfg.Postgres.Database,
				SSLMode:  cfg.Postgres.SSLMode,
			}))
		} else {
			opts = append(opts, types.EnableMemStore())
		}

		engine, err := flowforge.NewEngine(opts...)
		if err != nil {
			return err
		}
		codereview.RegisterSteps(engine)

		srv := &http.Server{
			Addr:    cfg.Listen,
			Handler: server.NewHandler(engine),
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Infof("flowforge listening on %s", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return err

		case sig := <-shutdown:
			log.Infof("shutting down on signal %v", sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Errorf("graceful shutdown did not complete in %v: %v", shutdownTimeout, err)
				if err := srv.Close(); err != nil {
					log.Errorf("failed to close server: %v", err)
				}
			}
			// wait for background runs so their records get flushed
			return engine.Close(context.Background())
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to YAML config file")
	serveCmd.Flags().StringP("listen", "l", "", "Listen address override (e.g. :8080)")
}
