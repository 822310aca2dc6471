// Package ftparchive backfills historical bulletins from an FTP archive.
package ftparchive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
)

// Config locates the archive.
type Config struct {
	Addr       string // host:port
	User       string
	Password   string
	Dir        string
	NameFilter string
	Timeout    time.Duration
}

// Source is a pipeline.Source that downloads every matching PDF in the
// archive directory.
type Source struct {
	cfg    Config
	logger *slog.Logger
}

// NewSource creates an archive Source.
func NewSource(cfg Config, logger *slog.Logger) *Source {
	if cfg.Dir == "" {
		cfg.Dir = "/"
	}
	return &Source{cfg: cfg, logger: logger}
}

// Fetch lists the archive directory and downloads the matching files, sorted
// by name, into temporary files. A file that fails to download is logged and
// left out.
func (s *Source) Fetch(ctx context.Context) ([]pipeline.SourceDocument, error) {
	conn, err := ftp.Dial(s.cfg.Addr, ftp.DialWithTimeout(s.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit() //nolint:errcheck // best-effort logout

	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	entries, err := conn.List(s.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("ftp list %s: %w", s.cfg.Dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == ftp.EntryTypeFile {
			names = append(names, e.Name)
		}
	}
	names = SelectFiles(names, s.cfg.NameFilter)
	s.logger.Info("archive listed", "dir", s.cfg.Dir, "entries", len(entries), "selected", len(names))

	docs := make([]pipeline.SourceDocument, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			cleanupAll(docs)
			return nil, err
		}
		remote := path.Join(s.cfg.Dir, name)
		local, err := retrieve(conn, remote)
		if err != nil {
			s.logger.Error("archive download failed", "file", remote, "error", err)
			continue
		}
		docs = append(docs, pipeline.SourceDocument{
			Name:    name,
			Link:    Link(s.cfg.Addr, s.cfg.Dir, name),
			Path:    local,
			Cleanup: func() { _ = os.Remove(local) },
		})
	}
	return docs, nil
}

func retrieve(conn *ftp.ServerConn, remote string) (string, error) {
	resp, err := conn.Retr(remote)
	if err != nil {
		return "", fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	f, err := os.CreateTemp("", "boletim-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, cerr := io.Copy(f, resp)
	if err := errors.Join(cerr, f.Close()); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("save %s: %w", remote, err)
	}
	return f.Name(), nil
}

func cleanupAll(docs []pipeline.SourceDocument) {
	for _, d := range docs {
		d.Cleanup()
	}
}

// SelectFiles keeps the PDF names containing filter, ignoring case, sorted.
func SelectFiles(names []string, filter string) []string {
	want := strings.ToLower(filter)
	var out []string
	for _, n := range names {
		lower := strings.ToLower(n)
		if strings.HasSuffix(lower, ".pdf") && strings.Contains(lower, want) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Link is the public ftp:// URL of an archive file.
func Link(addr, dir, name string) string {
	host := addr
	if h, port, ok := strings.Cut(addr, ":"); ok && port == "21" {
		host = h
	}
	u := url.URL{Scheme: "ftp", Host: host, Path: path.Join("/", dir, name)}
	return u.String()
}
