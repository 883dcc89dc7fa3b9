package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// chdir mirrors t.Chdir (Go 1.24+) for the Go 1.21 toolchain in use.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore chdir failed: %v", err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr: %s", cfg.Server.ListenAddr)
	}
	if cfg.Database.Path != "inkfolio.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Redis.Enabled {
		t.Fatal("redis should be disabled without a url")
	}
	if cfg.Admin.SessionIdle != 10*time.Minute {
		t.Fatalf("unexpected idle window: %v", cfg.Admin.SessionIdle)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("FOLIO_HTTP_SERVER_PORT", "9090")
	t.Setenv("FOLIO_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FOLIO_ADMIN_SESSION_IDLE", "20m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Server.ListenAddr != ":9090" {
		t.Fatalf("port override not applied: %+v", cfg.Server)
	}
	if !cfg.Redis.Enabled {
		t.Fatal("redis should be enabled when a url is set")
	}
	if cfg.Admin.SessionIdle != 20*time.Minute {
		t.Fatalf("idle override not applied: %v", cfg.Admin.SessionIdle)
	}
}
