package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	cfg := LoadFile("")

	if cfg.NewsAPI.PageSize != 100 || cfg.NewsAPI.MaxStart != 1000 || cfg.NewsAPI.MinInterval != 100*time.Millisecond {
		t.Fatalf("unexpected news api defaults: %+v", cfg.NewsAPI)
	}
	if cfg.Fetch.Concurrency != 4 || cfg.Jobs.Retention != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Fetch, cfg.Jobs)
	}
	if cfg.Location().String() != "Asia/Seoul" {
		t.Fatalf("expected Asia/Seoul, got %s", cfg.Location())
	}
}

func TestLoadFileMergesYAML(t *testing.T) {
	path := writeFile(t, `
logging:
  level: warn
  format: json
timezone: UTC
newsApi:
  endpoint: http://localhost:9000/search
  minInterval: 250ms
  maxRetries: 5
fetch:
  concurrency: 8
  maxCompanyOnly: 50
classifier:
  inferenceUrl: http://ml:8000
database:
  driver: sqlite
  dsn: file:ref.db
jobs:
  retention: 12h
telegram:
  topN: 3
`)
	cfg := LoadFile(path)

	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Fatalf("logging not merged: %+v", cfg.Logging)
	}
	if cfg.NewsAPI.Endpoint != "http://localhost:9000/search" || cfg.NewsAPI.MinInterval != 250*time.Millisecond || cfg.NewsAPI.MaxRetries != 5 {
		t.Fatalf("news api not merged: %+v", cfg.NewsAPI)
	}
	if cfg.NewsAPI.PageSize != 100 {
		t.Fatalf("unset fields must keep defaults, got page size %d", cfg.NewsAPI.PageSize)
	}
	if cfg.Fetch.Concurrency != 8 || cfg.Fetch.MaxCompanyOnly != 50 || cfg.Fetch.MaxPerIssue != 100 {
		t.Fatalf("fetch not merged: %+v", cfg.Fetch)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file:ref.db" {
		t.Fatalf("database not merged: %+v", cfg.Database)
	}
	if cfg.Classifier.InferenceURL != "http://ml:8000" || cfg.Classifier.NegativeLabel != "negative" {
		t.Fatalf("classifier not merged: %+v", cfg.Classifier)
	}
	if cfg.Jobs.Retention != 12*time.Hour || cfg.Telegram.TopN != 3 {
		t.Fatalf("jobs/telegram not merged: %+v %+v", cfg.Jobs, cfg.Telegram)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}

func TestLoadFileEnvOverrides(t *testing.T) {
	t.Setenv(newsClientIDEnv, "env-id")
	t.Setenv(newsClientSecretEnv, "env-secret")
	t.Setenv(databaseDSNEnv, "postgres://env")
	t.Setenv(fetchConcurrencyEnv, "6")
	t.Setenv(logLevelEnv, "error")
	t.Setenv(redisAddrEnv, "localhost:6379")

	path := writeFile(t, "newsApi:\n  clientId: file-id\n")
	cfg := LoadFile(path)

	if cfg.NewsAPI.ClientID != "env-id" || cfg.NewsAPI.ClientSecret != "env-secret" {
		t.Fatalf("env must win over file: %+v", cfg.NewsAPI)
	}
	if cfg.Database.DSN != "postgres://env" || cfg.Fetch.Concurrency != 6 || cfg.Logging.Level != "error" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadFileFallsBack(t *testing.T) {
	t.Setenv(fetchConcurrencyEnv, "many")

	cfg := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.Fetch.Concurrency != 4 {
		t.Fatalf("invalid env must be ignored, got %d", cfg.Fetch.Concurrency)
	}

	cfg = LoadFile(writeFile(t, "newsApi: [not, a, map"))
	if cfg.NewsAPI.PageSize != 100 {
		t.Fatalf("unparsable file must fall back to defaults")
	}

	cfg = LoadFile(writeFile(t, "timezone: Mars/Olympus"))
	if cfg.Location() != time.UTC {
		t.Fatalf("unknown timezone must revert to UTC, got %s", cfg.Location())
	}
}
