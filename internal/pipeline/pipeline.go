package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/observability"
)

// ErrDuplicate marks a bulletin that was already loaded.
var ErrDuplicate = errors.New("bulletin already loaded")

// SourceDocument is one PDF handed over by a Source. Cleanup, when set,
// releases temporary files and is called once the document is done.
type SourceDocument struct {
	Name    string
	Link    string
	Path    string
	Cleanup func()
}

// Source lists the documents for one run.
type Source interface {
	Fetch(ctx context.Context) ([]SourceDocument, error)
}

// Transformer turns a source document into a bulletin.
type Transformer interface {
	Transform(ctx context.Context, doc SourceDocument) (domain.Bulletin, error)
}

// Loader writes one bulletin's records to a destination.
type Loader interface {
	Load(ctx context.Context, b domain.Bulletin) error
}

// Deduper reports whether a bulletin number has already been loaded.
type Deduper interface {
	Known(ctx context.Context, number string) (bool, error)
}

// RunSummary counts what happened to the documents of one run.
type RunSummary struct {
	RunID      string
	Documents  int
	Loaded     int
	Skipped    int
	Duplicates int
	Failed     int
	Records    int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoadBackOff sets the retry policy for sink writes. The factory is
// called once per load so each write starts from a fresh policy.
func WithLoadBackOff(f func() backoff.BackOff) Option {
	return func(p *Pipeline) { p.loadBackOff = f }
}

// Pipeline orchestrates fetch, transform and load for a batch of bulletins.
type Pipeline struct {
	transformer Transformer
	loaders     []Loader
	logger      *slog.Logger
	metrics     *observability.Metrics
	workers     int
	loadBackOff func() backoff.BackOff
	ready       atomic.Bool
}

// New creates a Pipeline that transforms up to workers documents at once and
// writes each bulletin to every loader in order, stopping at the first
// failure. Loaders that also implement Deduper are moved after the others:
// once one of them has a bulletin, later runs skip it, so it must only see
// bulletins every other sink accepted.
func New(t Transformer, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics, workers int, opts ...Option) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		transformer: t,
		loaders:     dedupersLast(loaders),
		logger:      logger,
		metrics:     metrics,
		workers:     workers,
		loadBackOff: defaultLoadBackOff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func dedupersLast(loaders []Loader) []Loader {
	ordered := make([]Loader, 0, len(loaders))
	var last []Loader
	for _, l := range loaders {
		if _, ok := l.(Deduper); ok {
			last = append(last, l)
			continue
		}
		ordered = append(ordered, l)
	}
	return append(ordered, last...)
}

// defaultLoadBackOff starts at 200ms, doubles each retry and caps at 5s,
// giving up after a minute.
func defaultLoadBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}

// CheckReadiness returns nil once the pipeline has completed a run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

type transformResult struct {
	bulletin domain.Bulletin
	err      error
}

// Run fetches every document from src, transforms them concurrently and loads
// the results in source order. Per-document failures are counted and logged;
// only a failed fetch or a cancelled context aborts the run.
func (p *Pipeline) Run(ctx context.Context, src Source) (RunSummary, error) {
	start := time.Now()
	summary := RunSummary{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", summary.RunID)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	docs, err := src.Fetch(ctx)
	if err != nil {
		return summary, fmt.Errorf("fetch documents: %w", err)
	}
	done := 0
	defer func() {
		for _, d := range docs[done:] {
			cleanup(d)
		}
	}()
	summary.Documents = len(docs)
	logger.Info("run started", "documents", len(docs), "workers", p.workers)

	results := p.transformAll(ctx, docs)

	loadCtx := WithRunID(ctx, summary.RunID)
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			logger.Info("run cancelled", "reason", err)
			return summary, err
		}
		p.handle(loadCtx, logger.With("document", doc.Name), results[i], seen, &summary)
		cleanup(doc)
		done = i + 1
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	logger.Info("run finished",
		"documents", summary.Documents,
		"loaded", summary.Loaded,
		"skipped", summary.Skipped,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
		"records", summary.Records,
		"duration", time.Since(start),
	)
	return summary, nil
}

func (p *Pipeline) transformAll(ctx context.Context, docs []SourceDocument) []transformResult {
	results := make([]transformResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = transformResult{err: err}
				return nil
			}
			b, err := p.transformer.Transform(gctx, doc)
			results[i] = transformResult{bulletin: b, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) handle(ctx context.Context, log *slog.Logger, res transformResult, seen map[string]struct{}, summary *RunSummary) {
	b := res.bulletin
	if b.Metadata.Number != "" {
		log = log.With("bulletin", b.Metadata.Number)
	}

	switch {
	case errors.Is(res.err, ErrDuplicate):
		log.Info("bulletin already loaded, skipping")
		p.count(observability.OutcomeDuplicate)
		summary.Duplicates++
		return
	case res.err != nil:
		log.Error("document extraction failed", "error", res.err)
		p.count(observability.OutcomeFailed)
		summary.Failed++
		return
	case b.Skipped():
		log.Warn("document produced no records", "reason", string(b.Skip))
		p.metrics.Skips.WithLabelValues(string(b.Skip)).Inc()
		p.count(observability.OutcomeSkipped)
		summary.Skipped++
		return
	}

	if _, dup := seen[b.Metadata.Number]; dup {
		log.Info("bulletin repeated within run, skipping")
		p.count(observability.OutcomeDuplicate)
		summary.Duplicates++
		return
	}
	seen[b.Metadata.Number] = struct{}{}

	for _, l := range p.loaders {
		if err := p.load(ctx, l, b); err != nil {
			log.Error("load bulletin failed", "error", err, "records", len(b.Records))
			p.metrics.LoadErrors.Inc()
			p.count(observability.OutcomeFailed)
			summary.Failed++
			return
		}
	}

	p.count(observability.OutcomeLoaded)
	p.metrics.RecordsProduced.Add(float64(len(b.Records)))
	summary.Loaded++
	summary.Records += len(b.Records)
	log.Info("bulletin loaded", "period", b.Metadata.PeriodRaw, "records", len(b.Records))
}

func (p *Pipeline) load(ctx context.Context, l Loader, b domain.Bulletin) error {
	op := func() error {
		err := l.Load(ctx, b)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(p.loadBackOff(), ctx))
}

func (p *Pipeline) count(outcome string) {
	p.metrics.DocumentsTotal.WithLabelValues(outcome).Inc()
}

func cleanup(d SourceDocument) {
	if d.Cleanup != nil {
		d.Cleanup()
	}
}

type runIDKey struct{}

// WithRunID attaches the run identifier loaders stamp onto what they write.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the identifier attached by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
