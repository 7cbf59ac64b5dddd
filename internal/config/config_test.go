package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" || cfg.Store.Driver != DriverFile {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := "listen: \":9000\"\nstore:\n  driver: REDIS\nbackup:\n  cron: \"\"\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Store.Driver != DriverRedis || cfg.Store.RedisAddr != "127.0.0.1:6379" {
		t.Errorf("store not normalized: %+v", cfg.Store)
	}
	if cfg.Backup.Cron != "" {
		t.Errorf("empty cron should stay disabled, got %q", cfg.Backup.Cron)
	}
	if cfg.Backup.Keep != 14 || cfg.Backup.Dir != filepath.Join("./data", "backups") {
		t.Errorf("backup not normalized: %+v", cfg.Backup)
	}
}

func TestUnknownDriverFallsBackToFile(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: "sqlite"}}
	cfg.Normalize()
	if cfg.Store.Driver != DriverFile {
		t.Errorf("Driver = %q, want file", cfg.Store.Driver)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"STUDYCAL_LISTEN":       ":7000",
		"STUDYCAL_TIMEZONE":     "Europe/Berlin",
		"STUDYCAL_STORE_DRIVER": "postgres",
		"STUDYCAL_POSTGRES_DSN": "postgres://localhost/studycal",
		"STUDYCAL_REDIS_DB":     "not-a-number",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Listen != ":7000" || cfg.Timezone != "Europe/Berlin" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Store.PostgresDSN == "" {
		t.Errorf("store overrides not applied: %+v", cfg.Store)
	}
	if cfg.Store.RedisDB != 0 {
		t.Errorf("invalid redis db should be ignored, got %d", cfg.Store.RedisDB)
	}
}

func TestApplyEnvMovesDerivedBackupDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string {
		if k == "STUDYCAL_DATA_DIR" {
			return "/srv/studycal"
		}
		return ""
	})
	if want := filepath.Join("/srv/studycal", "backups"); cfg.Backup.Dir != want {
		t.Errorf("Backup.Dir = %q, want %q", cfg.Backup.Dir, want)
	}

	custom := DefaultConfig()
	custom.Backup.Dir = "/mnt/backups"
	custom.ApplyEnv(func(k string) string {
		if k == "STUDYCAL_DATA_DIR" {
			return "/srv/studycal"
		}
		return ""
	})
	if custom.Backup.Dir != "/mnt/backups" {
		t.Errorf("explicit backup dir moved to %q", custom.Backup.Dir)
	}

	explicit := DefaultConfig()
	explicit.ApplyEnv(func(k string) string {
		return map[string]string{
			"STUDYCAL_DATA_DIR":   "/srv/studycal",
			"STUDYCAL_BACKUP_DIR": "/var/backups/studycal",
		}[k]
	})
	if explicit.Backup.Dir != "/var/backups/studycal" {
		t.Errorf("Backup.Dir = %q", explicit.Backup.Dir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "me", Password: "secret"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "me" {
		t.Errorf("basic auth lost: %+v", got.BasicAuth)
	}
}

func TestLocation(t *testing.T) {
	if (&Config{}).Location() != time.Local {
		t.Error("empty timezone should mean local")
	}
	if (&Config{Timezone: "Mars/Olympus"}).Location() != time.Local {
		t.Error("unknown timezone should fall back to local")
	}
	if loc := (&Config{Timezone: "UTC"}).Location(); loc.String() != "UTC" {
		t.Errorf("loc = %s", loc)
	}
}
