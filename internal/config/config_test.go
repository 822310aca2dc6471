package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "data/balneabilidade.db", cfg.DBPath)
	assert.Empty(t, cfg.CSVPath)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "beach-water-quality", cfg.KafkaTopic)
	assert.Empty(t, cfg.LookupsPath)
	assert.Equal(t, DefaultBulletinPageURL, cfg.BulletinPageURL)
	assert.Equal(t, DefaultBulletinLinkText, cfg.BulletinLinkText)
	assert.Equal(t, 60*time.Second, cfg.FetchTimeout)
	assert.Empty(t, cfg.FTPAddr)
	assert.Equal(t, "anonymous", cfg.FTPUser)
	assert.Equal(t, "anonymous", cfg.FTPPassword)
	assert.Equal(t, "/", cfg.FTPDir)
	assert.Equal(t, "FORTALEZA", cfg.FTPNameFilter)
	assert.Equal(t, "@weekly", cfg.Schedule)
	assert.Empty(t, cfg.InboxDir)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WORKERS", "8")
	t.Setenv("DB_PATH", "/tmp/b.db")
	t.Setenv("CSV_PATH", "out.csv")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("LOOKUPS_PATH", "lookups.yaml")
	t.Setenv("BULLETIN_PAGE_URL", "http://localhost/boletins")
	t.Setenv("BULLETIN_LINK_TEXT", "Boletim")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("FTP_ADDR", "ftp.local:21")
	t.Setenv("FTP_USER", "semace")
	t.Setenv("FTP_PASSWORD", "secret")
	t.Setenv("FTP_DIR", "/boletins")
	t.Setenv("FTP_NAME_FILTER", "CAUCAIA")
	t.Setenv("SCHEDULE", "0 8 * * MON")
	t.Setenv("INBOX_DIR", "inbox")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/tmp/b.db", cfg.DBPath)
	assert.Equal(t, "out.csv", cfg.CSVPath)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, "lookups.yaml", cfg.LookupsPath)
	assert.Equal(t, "http://localhost/boletins", cfg.BulletinPageURL)
	assert.Equal(t, "Boletim", cfg.BulletinLinkText)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "ftp.local:21", cfg.FTPAddr)
	assert.Equal(t, "semace", cfg.FTPUser)
	assert.Equal(t, "secret", cfg.FTPPassword)
	assert.Equal(t, "/boletins", cfg.FTPDir)
	assert.Equal(t, "CAUCAIA", cfg.FTPNameFilter)
	assert.Equal(t, "0 8 * * MON", cfg.Schedule)
	assert.Equal(t, "inbox", cfg.InboxDir)
}

func TestLoad_EmptyDBPathDisablesStore(t *testing.T) {
	t.Setenv("DB_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.DBPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_InvalidWorkers(t *testing.T) {
	for _, v := range []string{"0", "65", "many"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("WORKERS", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "WORKERS")
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_BlankBrokerListDisablesKafka(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KafkaBrokers)
}
