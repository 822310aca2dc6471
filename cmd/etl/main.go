package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/joho/godotenv"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/config"
)

var cli struct {
	Serve      ServeCmd      `cmd:"" help:"Serve the HTTP API, run the weekly source on a schedule and watch the inbox."`
	Import     ImportCmd     `cmd:"" help:"Load every bulletin PDF in a local directory."`
	Weekly     WeeklyCmd     `cmd:"" help:"Download and load the latest bulletin from the SEMACE website."`
	Historical HistoricalCmd `cmd:"" help:"Load every bulletin in the FTP archive."`
	Parse      ParseCmd      `cmd:"" help:"Print the records of one bulletin PDF as CSV."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	kctx := kong.Parse(&cli,
		kong.Name("balneabilidade-etl"),
		kong.Description("Extracts beach water-quality records from SEMACE bulletins."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	err = kctx.Run(a)
	a.close()
	if err != nil {
		logger.Error("command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
