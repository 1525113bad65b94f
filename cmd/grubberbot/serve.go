package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/spf13/cobra"
	"github.com/vietd88/grubberbot/controller"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/mcpserver"
	"github.com/vietd88/grubberbot/web"
)

func (a *app) serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the web server, the MCP tools and the scheduled jobs",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending database migrations on startup")
	return cmd
}

func (a *app) serve(skipMigrate bool) error {
	cfg := a.cfg

	if !skipMigrate {
		if err := db.Migrate(cfg.PostgresConnStr); err != nil {
			return err
		}
	}

	ctrl, err := a.newController(context.Background(), clock.New())
	if err != nil {
		return err
	}

	server, err := web.NewServer(cfg.Port, ctrl, web.Options{
		AdminUser:     cfg.Admin.User,
		AdminPassword: cfg.Admin.Password,
		MCPPath:       cfg.MCP.Path,
		MCPHandler:    mcpserver.New(ctrl),
		MCPAPIKey:     cfg.MCP.APIKey,
	})
	if err != nil {
		return fmt.Errorf("error creating new web server: %w", err)
	}
	if cfg.Admin.Password == "" {
		slog.Warn("admin password is not set, admin routes are disabled")
	}
	if cfg.MCP.APIKey == "" {
		slog.Warn("mcp api key is not set, MCP tools are open to anyone", "path", cfg.MCP.Path)
	}

	jobs, err := controller.NewJobs(ctrl, controller.JobSchedule{
		SeasonSetup:   cfg.Jobs.SeasonSetup,
		RatingRefresh: cfg.Jobs.RatingRefresh,
	})
	if err != nil {
		return err
	}

	shutdown := make(chan bool)
	wg := &sync.WaitGroup{}

	// Setup a handler to catch ctrl-c signals and properly shutdown everything.
	intChannel := make(chan os.Signal, 2)
	signal.Notify(intChannel, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-intChannel
		close(shutdown)

		if err := waitTimeout(wg, 10*time.Second); err != nil {
			slog.Error("timed out waiting for proper shutdown")
			os.Exit(255)
		}
	}()

	// Season setup and rating refreshes
	wg.Add(1)
	go jobs.Run(shutdown, wg)

	// Start the web server
	wg.Add(1)
	go server.ListenAndServe(shutdown, wg)

	// Wait for everything to stop.
	wg.Wait()
	slog.Info("server shutdown")
	return nil
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) error {
	c := make(chan any)
	go func() {
		defer close(c)
		wg.Wait()
	}()

	select {
	case <-c:
		return nil // completed normally
	case <-time.After(timeout):
		return errors.New("timed out waiting")
	}
}
