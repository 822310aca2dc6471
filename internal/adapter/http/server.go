package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/store"
)

const maxUploadBytes = 32 << 20

// ParseFunc turns an uploaded PDF into a bulletin without persisting it.
type ParseFunc func(r io.Reader, link string) (domain.Bulletin, error)

// Archive serves bulletins already loaded into the store.
type Archive interface {
	Bulletins(ctx context.Context) ([]store.BulletinSummary, error)
	Records(ctx context.Context, number string) ([]domain.Record, error)
}

// Server exposes health, readiness, metrics and the bulletin API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	parse      ParseFunc
	archive    Archive
}

// NewServer creates the HTTP server. A nil parse disables POST /v1/bulletins
// and a nil archive disables the read endpoints.
func NewServer(addr string, ready sharedobs.ReadinessChecker, parse ParseFunc, archive Archive, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		parse:   parse,
		archive: archive,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/bulletins", func(r chi.Router) {
		r.Use(s.logRequests)
		if parse != nil {
			r.Post("/", s.handleParse)
		}
		if archive != nil {
			r.Get("/", s.handleList)
			r.Get("/{numero}/records", s.handleRecords)
		}
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type parseResponse struct {
	Number  string            `json:"numero_boletim"`
	Period  string            `json:"periodo"`
	Skip    domain.SkipReason `json:"skip"`
	Records []domain.Record   `json:"records"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body := bufio.NewReader(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if _, err := body.Peek(1); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a PDF document")
		return
	}

	b, err := s.parse(body, r.URL.Query().Get("link"))
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		case errors.Is(err, domain.ErrExtraction):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("parse upload", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := parseResponse{
		Number:  b.Metadata.Number,
		Period:  b.Metadata.PeriodRaw,
		Skip:    b.Skip,
		Records: b.Records,
	}
	if resp.Records == nil {
		resp.Records = []domain.Record{}
	}
	status := http.StatusOK
	if b.Skipped() {
		status = http.StatusUnprocessableEntity
	}
	sharedobs.WriteJSON(w, status, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.archive.Bulletins(r.Context())
	if err != nil {
		s.logger.Error("list bulletins", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []store.BulletinSummary{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "numero")
	records, err := s.archive.Records(r.Context(), number)
	if err != nil {
		s.logger.Error("list records", "error", err, "bulletin", number)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "bulletin not found")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, records)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
