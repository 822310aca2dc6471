package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/csvfile"
	kafkaadapter "github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/kafka"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/pdf"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/config"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/observability"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/store"
)

// app holds what every command shares. Sinks are opened on first use so
// parse never touches the database or the broker.
type app struct {
	ctx       context.Context
	cfg       *config.Config
	logger    *slog.Logger
	assembler *domain.Assembler
	metrics   func() *observability.Metrics

	store    *store.Store
	pipeline *pipeline.Pipeline
	closers  []func() error
	runMu    sync.Mutex
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	lookups := domain.DefaultLookups()
	if cfg.LookupsPath != "" {
		l, err := domain.LoadLookupsFile(cfg.LookupsPath)
		if err != nil {
			return nil, err
		}
		lookups = l
		logger.Info("lookup tables loaded", "path", cfg.LookupsPath, "points", len(l.Coordinates), "zones", len(l.Zones))
	}

	return &app{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		assembler: domain.NewAssembler(lookups),
		metrics:   observability.NewMetrics,
	}, nil
}

func openDocument(path string) (domain.Document, error) {
	return pdf.Open(path)
}

// buildPipeline wires the configured sinks. The store, when enabled, also
// de-duplicates bulletins across runs.
func (a *app) buildPipeline() (*pipeline.Pipeline, error) {
	if a.pipeline != nil {
		return a.pipeline, nil
	}

	var loaders []pipeline.Loader
	if a.cfg.CSVPath != "" {
		loaders = append(loaders, csvfile.NewWriter(a.cfg.CSVPath))
		a.logger.Info("csv export enabled", "path", a.cfg.CSVPath)
	}
	if len(a.cfg.KafkaBrokers) > 0 {
		w := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, a.logger)
		a.closers = append(a.closers, w.Close)
		loaders = append(loaders, w)
		a.logger.Info("kafka sink enabled", "brokers", a.cfg.KafkaBrokers, "topic", a.cfg.KafkaTopic)
	}
	// The store commits last: a bulletin it holds is never fetched again.
	var deduper pipeline.Deduper
	if a.cfg.DBPath != "" {
		st, err := store.Open(a.ctx, a.cfg.DBPath, a.logger)
		if err != nil {
			return nil, err
		}
		a.store = st
		a.closers = append(a.closers, st.Close)
		loaders = append(loaders, st)
		deduper = st
		a.logger.Info("store enabled", "path", a.cfg.DBPath)
	}
	if len(loaders) == 0 {
		return nil, fmt.Errorf("no sink configured: set DB_PATH, CSV_PATH or KAFKA_BROKERS")
	}

	transformer := pipeline.NewTransformer(a.assembler, openDocument, deduper, a.logger)
	a.pipeline = pipeline.New(transformer, loaders, a.logger, a.metrics(), a.cfg.Workers)
	return a.pipeline, nil
}

// run executes one pipeline run. Runs never overlap, so a bulletin arriving
// from the inbox and the scheduler at once is loaded only once.
func (a *app) run(ctx context.Context, src pipeline.Source) (pipeline.RunSummary, error) {
	p, err := a.buildPipeline()
	if err != nil {
		return pipeline.RunSummary{}, err
	}
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return p.Run(ctx, src)
}

// close waits for an in-flight run before releasing the sinks.
func (a *app) close() {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}
