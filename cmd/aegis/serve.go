package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/aegis/internal/api"
	"github.com/zulandar/aegis/internal/auth"
	"github.com/zulandar/aegis/internal/db"
	"github.com/zulandar/aegis/internal/reconcile"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Aegis HTTP API",
		Long: `Starts the HTTP API under /api.

Startup loads the config, opens and migrates the store, wires the Slack and
Discord notifiers that are configured, and starts the scheduled link repair
pass when reconcile.schedule is set. SIGINT or SIGTERM shuts down gracefully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)
	fmt.Fprintf(out, "Connected to %s store\n", cfg.Database.Driver)

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Reconcile.Schedule != "" {
		fmt.Fprintf(out, "Link repair scheduled: %s\n", cfg.Reconcile.Schedule)
		go reconcile.Schedule(ctx, gormDB, cfg.Reconcile.Schedule, reconcile.Opts{})
	}

	if port == 0 {
		port = cfg.Server.Port
	}
	start := time.Now()
	err = api.Start(ctx, api.StartOpts{
		Deps:           api.Deps{DB: gormDB, Issuer: issuer, Notifier: notifier},
		Port:           port,
		Mode:           cfg.Server.Mode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Out:            out,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stopped after %s\n", time.Since(start).Round(time.Second))
	return nil
}
