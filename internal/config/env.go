package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none are
// named) into the process environment. Variables already set win, and missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// envOverrides maps environment variables onto config fields. Secrets are
// usually supplied this way rather than written to config.toml.
var envOverrides = []struct {
	name  string
	apply func(*Config, string)
}{
	{"EVENTBID_STORE_DRIVER", func(c *Config, v string) { c.Store.Driver = v }},
	{"EVENTBID_STORE_DSN", func(c *Config, v string) { c.Store.DSN = v }},
	{"EVENTBID_MYSQL_HOST", func(c *Config, v string) { c.Store.MySQL.Host = v }},
	{"EVENTBID_MYSQL_PORT", func(c *Config, v string) { c.Store.MySQL.Port = v }},
	{"EVENTBID_MYSQL_USER", func(c *Config, v string) { c.Store.MySQL.User = v }},
	{"EVENTBID_MYSQL_PASSWORD", func(c *Config, v string) { c.Store.MySQL.Password = v }},
	{"EVENTBID_MYSQL_DATABASE", func(c *Config, v string) { c.Store.MySQL.Database = v }},
	{"EVENTBID_SHEETS_ID", func(c *Config, v string) { c.Store.Sheets.SpreadsheetID = v }},
	{"GOOGLE_APPLICATION_CREDENTIALS", func(c *Config, v string) { c.Store.Sheets.CredentialsPath = v }},
	{"EVENTBID_MONGO_URI", func(c *Config, v string) { c.Store.Mongo.URI = v }},
	{"EVENTBID_REDIS_ADDR", func(c *Config, v string) { c.Store.Redis.Addr = v }},
	{"EVENTBID_REDIS_PASSWORD", func(c *Config, v string) { c.Store.Redis.Password = v }},
	{"EVENTBID_REDIS_DB", func(c *Config, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.Redis.DB = n
		}
	}},
	{"EVENTBID_REMOTE_URL", func(c *Config, v string) { c.Store.Remote.BaseURL = v }},
	{"EVENTBID_SERVER_ADDR", func(c *Config, v string) { c.Server.Addr = v }},
	{"EVENTBID_LOG_LEVEL", func(c *Config, v string) { c.Log.Level = v }},
	{"EVENTBID_ZERO_MARGIN_POLICY", func(c *Config, v string) { c.Projection.ZeroMarginPolicy = v }},
}

// ApplyEnv overrides config fields from EVENTBID_* environment variables.
func ApplyEnv(cfg *Config) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			o.apply(cfg, v)
		}
	}
}

// EnvNames lists the environment variables ApplyEnv reads.
func EnvNames() []string {
	names := make([]string, len(envOverrides))
	for i, o := range envOverrides {
		names[i] = o.name
	}
	return names
}
