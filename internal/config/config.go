package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	maxWorkers = 64

	DefaultBulletinPageURL  = "https://www.semace.ce.gov.br/boletim-de-balneabilidade/"
	DefaultBulletinLinkText = "Boletim das Praias de Fortaleza"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	Workers         int

	// Sinks. An empty DBPath disables the store and bulletin de-duplication.
	DBPath       string
	CSVPath      string
	KafkaBrokers []string
	KafkaTopic   string

	// LookupsPath overrides the embedded coordinate and zone tables.
	LookupsPath string

	// Weekly source.
	BulletinPageURL  string
	BulletinLinkText string
	FetchTimeout     time.Duration

	// Historical archive.
	FTPAddr       string
	FTPUser       string
	FTPPassword   string
	FTPDir        string
	FTPNameFilter string

	// serve only.
	Schedule string
	InboxDir string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseFetchTimeout()
	if err != nil {
		return nil, err
	}
	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,
		Workers:         workers,

		DBPath:       envOrDefaultAllowEmpty("DB_PATH", "data/balneabilidade.db"),
		CSVPath:      os.Getenv("CSV_PATH"),
		KafkaBrokers: sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "beach-water-quality"),

		LookupsPath: os.Getenv("LOOKUPS_PATH"),

		BulletinPageURL:  sharedcfg.EnvOrDefault("BULLETIN_PAGE_URL", DefaultBulletinPageURL),
		BulletinLinkText: sharedcfg.EnvOrDefault("BULLETIN_LINK_TEXT", DefaultBulletinLinkText),
		FetchTimeout:     fetchTimeout,

		FTPAddr:       os.Getenv("FTP_ADDR"),
		FTPUser:       sharedcfg.EnvOrDefault("FTP_USER", "anonymous"),
		FTPPassword:   sharedcfg.EnvOrDefault("FTP_PASSWORD", "anonymous"),
		FTPDir:        sharedcfg.EnvOrDefault("FTP_DIR", "/"),
		FTPNameFilter: sharedcfg.EnvOrDefault("FTP_NAME_FILTER", "FORTALEZA"),

		Schedule: sharedcfg.EnvOrDefault("SCHEDULE", "@weekly"),
		InboxDir: os.Getenv("INBOX_DIR"),
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	return cfg, nil
}

// envOrDefaultAllowEmpty distinguishes unset from explicitly empty so a
// variable can be blanked to switch a feature off.
func envOrDefaultAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func parseFetchTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "60s"))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid FETCH_TIMEOUT")
	}
	return d, nil
}

func parseWorkers() (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault("WORKERS", "4"))
	if err != nil || n < 1 || n > maxWorkers {
		return 0, fmt.Errorf("invalid WORKERS: must be between 1 and %d", maxWorkers)
	}
	return n, nil
}
