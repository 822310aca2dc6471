package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/robfig/cron/v3"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/csvfile"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/ftparchive"
	httpadapter "github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/http"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/localdir"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/pdf"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/adapter/semace"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
)

// ImportCmd backfills from a local folder of PDFs.
type ImportCmd struct {
	Dir string `help:"Directory holding bulletin PDFs." type:"existingdir" required:""`
}

func (c *ImportCmd) Run(a *app) error {
	_, err := a.run(a.ctx, localdir.NewDir(c.Dir))
	return err
}

// WeeklyCmd loads the newest bulletin published on the website.
type WeeklyCmd struct{}

func (c *WeeklyCmd) Run(a *app) error {
	_, err := a.run(a.ctx, a.weeklySource())
	return err
}

// HistoricalCmd backfills from the FTP archive.
type HistoricalCmd struct{}

func (c *HistoricalCmd) Run(a *app) error {
	if a.cfg.FTPAddr == "" {
		return errors.New("FTP_ADDR is required for historical")
	}
	src := ftparchive.NewSource(ftparchive.Config{
		Addr:       a.cfg.FTPAddr,
		User:       a.cfg.FTPUser,
		Password:   a.cfg.FTPPassword,
		Dir:        a.cfg.FTPDir,
		NameFilter: a.cfg.FTPNameFilter,
		Timeout:    a.cfg.FetchTimeout,
	}, a.logger)
	_, err := a.run(a.ctx, src)
	return err
}

// ParseCmd prints one document's records without loading them anywhere.
type ParseCmd struct {
	File string `arg:"" help:"Bulletin PDF." type:"existingfile"`
	Link string `help:"Public URL recorded as link_boletim."`
}

func (c *ParseCmd) Run(a *app) error {
	return parseTo(os.Stdout, a, c.File, c.Link)
}

func parseTo(w io.Writer, a *app, file, link string) error {
	doc, err := pdf.Open(file)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	b, err := a.assembler.Assemble(doc, link)
	if err != nil {
		return err
	}
	if b.Skipped() {
		a.logger.Warn("document produced no records", "document", file, "bulletin", b.Metadata.Number, "reason", string(b.Skip))
	}
	return csvfile.Write(w, b.Records, true)
}

// ServeCmd is the long-running mode.
type ServeCmd struct {
	RunNow bool `help:"Run the weekly source once at startup." default:"true" negatable:""`
}

func (c *ServeCmd) Run(a *app) error {
	ctx := a.ctx
	if _, err := a.buildPipeline(); err != nil {
		return err
	}

	var archive httpadapter.Archive
	if a.store != nil {
		archive = a.store
	}
	parse := func(r io.Reader, link string) (domain.Bulletin, error) {
		return pdf.Parse(r, a.assembler, link)
	}
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.pipeline, parse, archive, a.logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()

	weekly := func() {
		if _, err := a.run(ctx, a.weeklySource()); err != nil && ctx.Err() == nil {
			a.logger.Error("weekly run failed", "error", err)
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc(a.cfg.Schedule, weekly); err != nil {
		return fmt.Errorf("invalid SCHEDULE %q: %w", a.cfg.Schedule, err)
	}
	sched.Start()
	a.logger.Info("weekly run scheduled", "schedule", a.cfg.Schedule)

	if c.RunNow {
		go weekly()
	}

	watchDone := make(chan struct{})
	if a.cfg.InboxDir != "" {
		w := localdir.NewWatcher(a.cfg.InboxDir, 0, a.logger)
		go func() {
			defer close(watchDone)
			err := w.Run(ctx, func(path string) {
				if _, err := a.run(ctx, localdir.File(path, "")); err != nil && ctx.Err() == nil {
					a.logger.Error("inbox run failed", "path", path, "error", err)
				}
			})
			if err != nil {
				a.logger.Error("inbox watcher stopped", "error", err)
			}
		}()
	} else {
		close(watchDone)
	}

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		a.logger.Warn("scheduled run still in progress at shutdown")
	}
	<-watchDone

	a.logger.Info("shutdown complete")
	return nil
}

func (a *app) weeklySource() pipeline.Source {
	return semace.NewSource(a.cfg.BulletinPageURL, a.cfg.BulletinLinkText, a.cfg.FetchTimeout, a.logger)
}
