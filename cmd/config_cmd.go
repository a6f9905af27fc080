// Package cmd implements the eventbid CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", configPath())
	if configExists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Origin kingdom: %s\n", cfg.General.OriginKingdom)
	fmt.Printf("    Default group:  %s\n", orUnset(cfg.General.DefaultGroup))
	fmt.Printf("    Export dir:     %s\n", orUnset(cfg.General.ExportDir))
	fmt.Println()

	fmt.Println("  [Projection]")
	fmt.Printf("    Zero margin:   %s\n", cfg.Projection.ZeroMarginPolicy)
	fmt.Printf("    Mode:          %s\n", cfg.Projection.Mode)
	fmt.Printf("    Partial share: %.2f\n", cfg.Projection.PartialShare)
	fmt.Printf("    Feast rate:    %.2f\n", cfg.Projection.FeastRate)
	fmt.Printf("    Lodging rate:  %.2f\n", cfg.Projection.LodgingRate)
	fmt.Println()

	s := cfg.Store
	fmt.Println("  [Store]")
	fmt.Printf("    Driver: %s (%s)\n", s.Driver, strings.Join(store.Drivers, ", "))
	fmt.Printf("    DSN:    %s\n", orUnset(maskDSN(s.DSN)))
	switch s.Driver {
	case "mysql":
		fmt.Printf("    MySQL:  %s@%s:%s/%s password %s\n",
			s.MySQL.User, s.MySQL.Host, s.MySQL.Port, s.MySQL.Database, maskSecret(s.MySQL.Password))
	case "sheets":
		fmt.Printf("    Sheet:  %s\n", orUnset(s.Sheets.SpreadsheetID))
		fmt.Printf("    Creds:  %s\n", orUnset(s.Sheets.CredentialsPath))
	case "mongo":
		fmt.Printf("    Mongo:  %s db=%s coll=%s\n", orUnset(maskDSN(s.Mongo.URI)), s.Mongo.Database, s.Mongo.Collection)
	case "redis":
		fmt.Printf("    Redis:  %s db=%d prefix=%s password %s\n",
			s.Redis.Addr, s.Redis.DB, s.Redis.Prefix, maskSecret(s.Redis.Password))
	case "remote":
		fmt.Printf("    Remote: %s (timeout %ds)\n", orUnset(s.Remote.BaseURL), s.Remote.TimeoutSeconds)
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Addr: %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  Environment overrides:")
	for _, name := range config.EnvNames() {
		state := "unset"
		if os.Getenv(name) != "" {
			state = "set"
		}
		fmt.Printf("    %-32s %s\n", name, state)
	}
	fmt.Println()

	fmt.Println("  Run `eventbid setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func maskSecret(s string) string {
	if s == "" {
		return "not set"
	}
	if len(s) > 16 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "****"
}

// maskDSN hides the password in user:password@host style DSNs and URLs.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	userinfo := dsn[:at]
	start := strings.Index(userinfo, "://")
	if start >= 0 {
		start += 3
	} else {
		start = 0
	}
	colon := strings.Index(userinfo[start:], ":")
	if colon < 0 {
		return dsn
	}
	return dsn[:start+colon+1] + "****" + dsn[at:]
}
