package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadByPath_Defaults(t *testing.T) {
	cfg, err := LoadByPath(writeConfig(t, "env: test\n"))
	if err != nil {
		t.Fatalf("LoadByPath returned error: %v", err)
	}

	if cfg.RuleStore.Source != SourcePostgres {
		t.Fatalf("unexpected default source: %q", cfg.RuleStore.Source)
	}
	if cfg.RuleCacheTTL != time.Hour {
		t.Fatalf("unexpected cache ttl: %v", cfg.RuleCacheTTL)
	}
	if len(cfg.Calendar.AllowedDays) != 2 || cfg.Calendar.AllowedDays[1] != 3 {
		t.Fatalf("unexpected allowed days: %v", cfg.Calendar.AllowedDays)
	}
	if cfg.GRPC.Timeout != 5*time.Second {
		t.Fatalf("unexpected grpc timeout: %v", cfg.GRPC.Timeout)
	}
}

func TestLoadByPath_RejectsUnknownSource(t *testing.T) {
	_, err := LoadByPath(writeConfig(t, "rule_store:\n  source: mongo\n"))
	if err == nil || !strings.Contains(err.Error(), "rule_store.source") {
		t.Fatalf("expected source validation error, got %v", err)
	}
}

func TestLoadByPath_MissingFile(t *testing.T) {
	if _, err := LoadByPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestDatabaseURL(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "rules", Password: "p@ss", Name: "atse"}
	got := c.DatabaseURL()
	if got != "postgres://rules:p%40ss@db:5432/atse?sslmode=require" {
		t.Fatalf("unexpected url: %s", got)
	}

	c.DSN = "postgres://override"
	if c.DatabaseURL() != "postgres://override" {
		t.Fatalf("dsn must win: %s", c.DatabaseURL())
	}
}
