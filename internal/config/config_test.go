package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/david/ywc-dashboard/internal/db"
)

var overrideKeys = []string{
	"PORT", "DATABASE_URL", "YWC_STORE", "YWC_SQLITE_PATH",
	"CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "YWC_ORGANIZATION",
}

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrideKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "8081" || cfg.Addr() != ":8081" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != db.BackendSQLite {
		t.Fatalf("backend = %q", cfg.Store.Backend)
	}
	if cfg.Report.Organization != "Yukon Women's Coalition" {
		t.Fatalf("organization = %q", cfg.Report.Organization)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 1 {
		t.Fatalf("cors = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("YWC_STORE", "Memory")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("YWC_ORGANIZATION", "Les EssentiElles")

	cfg, err := Load("", noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if cfg.Store.Backend != db.BackendMemory {
		t.Fatalf("backend = %q", cfg.Store.Backend)
	}
	if got := cfg.Server.CORSOrigins; len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("cors = %v", got)
	}
	if cfg.Report.Organization != "Les EssentiElles" {
		t.Fatalf("organization = %q", cfg.Report.Organization)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("LOG_LEVEL=debug\nYWC_STORE=memory\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Store.Backend != db.BackendMemory {
		t.Fatalf("env file not applied: %+v", cfg)
	}
}

func TestLoad_FileWithExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("YWC_TEST_DB_PATH", "/tmp/custom.db")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "server:\n  port: \"7000\"\nstore:\n  backend: sqlite\n  sqlite_path: ${YWC_TEST_DB_PATH}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path, noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.SQLitePath != "/tmp/custom.db" {
		t.Fatalf("sqlite path = %q", cfg.Store.SQLitePath)
	}
}

func TestLoad_InvalidBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("YWC_STORE", "redis")
	if _, err := Load("", noEnvFile(t)); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
