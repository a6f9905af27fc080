package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range EnvNames() {
		t.Setenv(name, "")
	}
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	want := DefaultConfig()
	if cfg.Store.Driver != want.Store.Driver || cfg.Projection.ZeroMarginPolicy != "undefined" {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestSaveToLoadFrom_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.General.DefaultGroup = "Shire of Owlsherst"
	cfg.Projection.ZeroMarginPolicy = "zero-when-no-fixed-costs"
	cfg.Projection.FeastRate = 0.65
	cfg.Store.Driver = "mysql"
	cfg.Store.MySQL.User = "bids"
	cfg.Store.Redis.DB = 3

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	data := "[store]\ndriver = \"xlsx\"\n\n[projection]\nfeast_rate = 0.8\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Store.Driver != "xlsx" || cfg.Projection.FeastRate != 0.8 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Projection.LodgingRate != 0.2 || cfg.General.OriginKingdom != "Meridies" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFrom_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[store\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom succeeded on malformed TOML")
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("EVENTBID_STORE_DRIVER", "redis")
	t.Setenv("EVENTBID_MYSQL_PASSWORD", "s3cret")
	t.Setenv("EVENTBID_REDIS_DB", "2")
	t.Setenv("EVENTBID_ZERO_MARGIN_POLICY", "zero-when-no-fixed-costs")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Store.Driver != "redis" {
		t.Errorf("Driver = %q, want redis", cfg.Store.Driver)
	}
	if cfg.Store.MySQL.Password != "s3cret" {
		t.Errorf("MySQL.Password = %q", cfg.Store.MySQL.Password)
	}
	if cfg.Store.Redis.DB != 2 {
		t.Errorf("Redis.DB = %d, want 2", cfg.Store.Redis.DB)
	}
	if cfg.Projection.ZeroMarginPolicy != "zero-when-no-fixed-costs" {
		t.Errorf("ZeroMarginPolicy = %q", cfg.Projection.ZeroMarginPolicy)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("EVENTBID_REDIS_ADDR=cache:6380\nEVENTBID_STORE_DSN=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides a variable that is already present, even when empty.
	t.Setenv("EVENTBID_STORE_DSN", "from-shell")
	if err := os.Unsetenv("EVENTBID_REDIS_ADDR"); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(envFile, filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("EVENTBID_REDIS_ADDR") })

	if got := os.Getenv("EVENTBID_REDIS_ADDR"); got != "cache:6380" {
		t.Errorf("EVENTBID_REDIS_ADDR = %q, want cache:6380", got)
	}
	if got := os.Getenv("EVENTBID_STORE_DSN"); got != "from-shell" {
		t.Errorf("EVENTBID_STORE_DSN = %q, want from-shell", got)
	}
}

func TestDefaultDSN(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultDSN("sqlite"); got != filepath.Join("/data", "eventbid", "bids.db") {
		t.Errorf("DefaultDSN(sqlite) = %q", got)
	}
	if got := DefaultDSN("xlsx"); got != filepath.Join("/data", "eventbid", "bids.xlsx") {
		t.Errorf("DefaultDSN(xlsx) = %q", got)
	}
}
