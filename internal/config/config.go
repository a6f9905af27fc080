// Package config loads and saves the eventbid TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all eventbid configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Projection ProjectionConfig `toml:"projection"`
	Store      StoreConfig      `toml:"store"`
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds defaults for new bids.
type GeneralConfig struct {
	OriginKingdom string `toml:"origin_kingdom"`
	DefaultGroup  string `toml:"default_group,omitempty"`
	ExportDir     string `toml:"export_dir,omitempty"`
}

// ProjectionConfig tunes the projection engine and the scenario defaults
// used when no explicit sales figures are given.
type ProjectionConfig struct {
	ZeroMarginPolicy string  `toml:"zero_margin_policy"`
	Mode             string  `toml:"mode"`
	PartialShare     float64 `toml:"partial_share"`
	FeastRate        float64 `toml:"feast_rate"`
	LodgingRate      float64 `toml:"lodging_rate"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver string       `toml:"driver"`
	DSN    string       `toml:"dsn,omitempty"`
	MySQL  MySQLConfig  `toml:"mysql"`
	Sheets SheetsConfig `toml:"sheets"`
	Mongo  MongoConfig  `toml:"mongo"`
	Redis  RedisConfig  `toml:"redis"`
	Remote RemoteConfig `toml:"remote"`
}

// MySQLConfig mirrors the [mysql] secrets block of the hosted form.
type MySQLConfig struct {
	Host     string `toml:"host,omitempty"`
	Port     string `toml:"port,omitempty"`
	User     string `toml:"user,omitempty"`
	Password string `toml:"password,omitempty"`
	Database string `toml:"database,omitempty"`
}

// SheetsConfig points at a Google spreadsheet used as a table.
type SheetsConfig struct {
	SpreadsheetID   string `toml:"spreadsheet_id,omitempty"`
	CredentialsPath string `toml:"credentials_path,omitempty"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `toml:"uri,omitempty"`
	Database   string `toml:"database,omitempty"`
	Collection string `toml:"collection,omitempty"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr,omitempty"`
	Password string `toml:"password,omitempty"`
	DB       int    `toml:"db,omitempty"`
	Prefix   string `toml:"prefix,omitempty"`
}

// RemoteConfig points at another eventbid server.
type RemoteConfig struct {
	BaseURL        string `toml:"base_url,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds,omitempty"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			OriginKingdom: "Meridies",
		},
		Projection: ProjectionConfig{
			ZeroMarginPolicy: "undefined",
			Mode:             "projected",
			FeastRate:        0.3,
			LodgingRate:      0.2,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			MySQL: MySQLConfig{
				Host:     "localhost",
				Port:     "3306",
				Database: "eventbid",
			},
			Mongo: MongoConfig{
				Database:   "eventbid",
				Collection: "entries",
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "eventbid",
			},
			Remote: RemoteConfig{
				TimeoutSeconds: 15,
			},
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8740",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "eventbid")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "eventbid")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory for local stores.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "eventbid")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "eventbid")
}

// DefaultDSN returns the default location of a file-backed store.
func DefaultDSN(driver string) string {
	switch driver {
	case "xlsx":
		return filepath.Join(DataDir(), "bids.xlsx")
	default:
		return filepath.Join(DataDir(), "bids.db")
	}
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied on top.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom is Load with an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user or the XDG dir
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	ApplyEnv(&cfg)
	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-chosen config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
