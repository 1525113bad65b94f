package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/itbasis/go-clock"
	"github.com/spf13/cobra"
	"github.com/vietd88/grubberbot/balance"
	"github.com/vietd88/grubberbot/chesscom"
	"github.com/vietd88/grubberbot/config"
	"github.com/vietd88/grubberbot/controller"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/export"
	"github.com/vietd88/grubberbot/notify"
	"github.com/vietd88/grubberbot/pairing"
	"github.com/vietd88/grubberbot/ratings"
)

// app carries what every command needs once the config is loaded.
type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "grubberbot",
		Short: "Chess league management: signups, teams, pairings and substitutes",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file, values from the environment take precedence")

	rootCmd.AddCommand(
		a.serveCmd(),
		a.migrateCmd(),
		a.seasonsCmd(),
		a.teamsCmd(),
		a.balanceCmd(),
		a.resetCmd(),
		a.pairCmd(),
		a.exportCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newController connects to the database and builds the controller with every
// configured dependency.
func (a *app) newController(ctx context.Context, clock clock.Clock) (controller.C, error) {
	cfg := a.cfg

	store, err := db.New(ctx, cfg.PostgresConnStr, clock)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to DB: %w", err)
	}

	chesscomClient, err := chesscom.New(cfg.Chesscom.URL, cfg.Chesscom.UserAgent, cfg.Chesscom.Timeout.Duration)
	if err != nil {
		return nil, fmt.Errorf("error creating chess.com client: %w", err)
	}

	cache := ratings.New(clock, chesscomClient, store, ratings.Options{
		Window:     cfg.League.RatingStaleness.Duration,
		ServeStale: cfg.League.ServeStale,
	})

	notifier := notify.NewLog()
	if cfg.Notify.WebhookURL != "" {
		notifier, err = notify.NewWebhook(cfg.Notify.WebhookURL)
		if err != nil {
			return nil, fmt.Errorf("error creating notifier: %w", err)
		}
	}

	var uploader export.Uploader
	if cfg.Export.Enabled() {
		uploader, err = export.NewUploader(ctx, export.UploaderConfig{
			Bucket:          cfg.Export.Bucket,
			Endpoint:        cfg.Export.Endpoint,
			Region:          cfg.Export.Region,
			AccessKeyID:     cfg.Export.AccessKeyID,
			SecretAccessKey: cfg.Export.SecretAccessKey,
			PublicBaseURL:   cfg.Export.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("error creating uploader: %w", err)
		}
	}

	deps := controller.Deps{
		DB:       store,
		Ratings:  cache,
		Chesscom: chesscomClient,
		Notifier: notifier,
		Uploader: uploader,
	}
	ctrl, err := controller.New(clock, deps, controllerOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("error creating a new controller: %w", err)
	}
	return ctrl, nil
}

func controllerOptions(cfg *config.Config) controller.Options {
	return controller.Options{
		MinRapidGames: cfg.League.MinRapidGames,
		MinTotalGames: cfg.League.MinTotalGames,
		SubHeadroom:   cfg.League.SubHeadroom,
		TimeControl:   cfg.League.TimeControl,
		SeasonHorizon: cfg.League.SeasonHorizon,
		TeamNames:     cfg.League.TeamNames,
		PublicURL:     cfg.PublicURL,
		Balance: balance.Options{
			Restarts:      cfg.Balance.Restarts,
			Budget:        cfg.Balance.Budget.Duration,
			MaxIterations: cfg.Balance.MaxIterations,
		},
		Pairing: pairing.Options{
			Restarts:      cfg.Pairing.Restarts,
			Budget:        cfg.Pairing.Budget.Duration,
			MaxIterations: cfg.Pairing.MaxIterations,
		},
	}
}
