package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"PaperFeed/internal/app"
	"PaperFeed/internal/config"
	"PaperFeed/internal/infrastructure/storage"
	"PaperFeed/internal/logging"
)

func setup(cmd *cli.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFrom(cmd.String("config"))
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

// withApp builds the application for one command and closes it afterwards.
func withApp(ctx context.Context, cmd *cli.Command, run func(context.Context, *app.Application, *slog.Logger) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close stores", "error", err)
		}
	}()
	return run(ctx, application, logger)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.Application, _ *slog.Logger) error {
				return a.Serve(ctx)
			})
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := storage.Migrate(ctx, cfg.Database.DSN); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Fetch today's papers from the configured sites",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				report, err := a.Ingest(ctx)
				if err != nil {
					return err
				}
				logger.Info("ingestion finished",
					"fetched", report.Fetched,
					"stored", report.Stored,
					"existing", report.Existing,
					"invalid", report.Invalid)
				return nil
			})
		},
	}
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate feed entries for one user",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Usage: "User id", Required: true},
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Entries to generate (default: feed batch size)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			userID := cmd.Int64("user")
			if userID <= 0 {
				return fmt.Errorf("--user must be positive")
			}
			return withApp(ctx, cmd, func(ctx context.Context, a *app.Application, logger *slog.Logger) error {
				entries, err := a.Generate(ctx, userID, int(cmd.Int("count")))
				logger.Info("generation finished", "user_id", userID, "stored", len(entries))
				return err
			})
		},
	}
}
