// Package store persists bulletins and their records in SQLite and answers
// the "already loaded" question used to skip reprocessing.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ayalarodrigues/balneabilidade-etl/internal/domain"
	"github.com/ayalarodrigues/balneabilidade-etl/internal/pipeline"
)

// Store implements pipeline.Loader and pipeline.Deduper.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ pipeline.Loader  = (*Store)(nil)
	_ pipeline.Deduper = (*Store)(nil)
)

// New wraps an open database. Call Migrate before use.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Open opens (creating if needed) the SQLite file at path and migrates it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: databases intact.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := New(db, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Known reports whether bulletin number has already been loaded.
func (s *Store) Known(ctx context.Context, number string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bulletins WHERE numero_boletim = ?", number).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check bulletin %s: %w", number, err)
	}
	return n > 0, nil
}

// Load stores a bulletin and all its records in one transaction. Records that
// collide on (id_ponto, nome_praia, data_coleta, numero_boletim) are ignored.
func (s *Store) Load(ctx context.Context, b domain.Bulletin) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bulletins (numero_boletim, periodo, link_boletim, run_id, record_count, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(numero_boletim) DO NOTHING
	`, b.Metadata.Number, b.Metadata.PeriodRaw, bulletinLink(b), pipeline.RunID(ctx), len(b.Records), time.Now().UTC()); err != nil {
		return fmt.Errorf("insert bulletin %s: %w", b.Metadata.Number, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id_ponto, data_coleta, nome_praia, zona, status, latitude, longitude, numero_boletim, link_boletim, data_extracao)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id_ponto, nome_praia, data_coleta, numero_boletim) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare records: %w", err)
	}
	defer stmt.Close()

	for _, r := range b.Records {
		if _, err := stmt.ExecContext(ctx,
			r.PointCode, r.CollectedOn, r.PointName, r.Zone, r.Status,
			r.Latitude, r.Longitude, r.BulletinNo, r.Link, r.ExtractedAt,
		); err != nil {
			return fmt.Errorf("insert record %s/%s: %w", r.PointCode, r.CollectedOn, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulletin %s: %w", b.Metadata.Number, err)
	}
	return nil
}

// Records returns every stored record of a bulletin ordered by day and
// insertion order.
func (s *Store) Records(ctx context.Context, number string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id_ponto, data_coleta, nome_praia, zona, status, latitude, longitude, numero_boletim, link_boletim, data_extracao
		FROM records WHERE numero_boletim = ?
		ORDER BY data_coleta, id
	`, number)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		var (
			r        domain.Record
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&r.PointCode, &r.CollectedOn, &r.PointName, &r.Zone, &r.Status,
			&lat, &lon, &r.BulletinNo, &r.Link, &r.ExtractedAt); err != nil {
			return nil, err
		}
		r.Latitude = nullableFloat(lat)
		r.Longitude = nullableFloat(lon)
		out = append(out, r)
	}
	return out, rows.Err()
}

// BulletinSummary is one row of the bulletins table.
type BulletinSummary struct {
	Number      string    `json:"numero_boletim"`
	Period      string    `json:"periodo"`
	Link        string    `json:"link_boletim"`
	RunID       string    `json:"run_id"`
	RecordCount int       `json:"record_count"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Bulletins lists loaded bulletins, most recently loaded first.
func (s *Store) Bulletins(ctx context.Context) ([]BulletinSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT numero_boletim, periodo, link_boletim, run_id, record_count, loaded_at
		FROM bulletins ORDER BY loaded_at DESC, numero_boletim DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query bulletins: %w", err)
	}
	defer rows.Close()

	var out []BulletinSummary
	for rows.Next() {
		var b BulletinSummary
		if err := rows.Scan(&b.Number, &b.Period, &b.Link, &b.RunID, &b.RecordCount, &b.LoadedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func bulletinLink(b domain.Bulletin) string {
	if len(b.Records) > 0 {
		return b.Records[0].Link
	}
	return ""
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
