// Package semace discovers and downloads the latest weekly bulletin from the
// SEMACE website.
package semace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
)

// ErrNoBulletinLink is returned when the page has no anchor matching the link text.
var ErrNoBulletinLink = errors.New("no bulletin link found on page")

// Source is a pipeline.Source that scrapes the bulletin page and downloads
// the first matching PDF.
type Source struct {
	pageURL  string
	linkText string
	client   *http.Client
	logger   *slog.Logger
	backOff  func() backoff.BackOff
}

// Option configures a Source.
type Option func(*Source)

// WithBackOff sets the retry policy for page and PDF requests.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(s *Source) { s.backOff = f }
}

// NewSource creates a Source for the bulletin page. Requests time out after timeout.
func NewSource(pageURL, linkText string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Source {
	s := &Source{
		pageURL:  pageURL,
		linkText: linkText,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads the latest bulletin. The page lists bulletins newest first,
// so only the first matching link is taken.
func (s *Source) Fetch(ctx context.Context) ([]pipeline.SourceDocument, error) {
	page, err := s.get(ctx, s.pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch bulletin page: %w", err)
	}

	links, err := FindLinks(bytes.NewReader(page), s.pageURL, s.linkText)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoBulletinLink, s.linkText)
	}
	link := links[0]
	s.logger.Info("bulletin link found", "link", link, "candidates", len(links))

	body, err := s.get(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("download bulletin: %w", err)
	}

	f, err := os.CreateTemp("", "boletim-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	_, werr := f.Write(body)
	if err := errors.Join(werr, f.Close()); err != nil {
		cleanup()
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return []pipeline.SourceDocument{{
		Name:    documentName(link),
		Link:    link,
		Path:    f.Name(),
		Cleanup: cleanup,
	}}, nil
}

// get retries transport failures, 429 and 5xx responses. Other statuses are final.
func (s *Source) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("%s: status %d", target, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("%s: status %d", target, resp.StatusCode))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}

	notify := func(err error, wait time.Duration) {
		s.logger.Warn("request failed, retrying", "url", target, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(s.backOff(), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

// FindLinks returns the absolute hrefs of the anchors whose text contains
// linkText, ignoring case, in document order.
func FindLinks(r io.Reader, baseURL, linkText string) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bulletin page: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	want := strings.ToLower(linkText)
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			href := attr(n, "href")
			text := strings.ToLower(strings.Join(strings.Fields(nodeText(n)), " "))
			if href != "" && strings.Contains(text, want) {
				if ref, err := url.Parse(href); err == nil {
					links = append(links, base.ResolveReference(ref).String())
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
		sb.WriteByte(' ')
	}
	return sb.String()
}

func documentName(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if name := path.Base(u.Path); name != "/" && name != "." {
		return name
	}
	return link
}
