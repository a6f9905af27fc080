package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/logger"
	"github.com/meridies/eventbid/internal/projection"
	"github.com/meridies/eventbid/internal/session"
	"github.com/meridies/eventbid/internal/store"
)

var (
	flagConfig    string
	flagStore     string
	flagDSN       string
	flagEphemeral bool
	flagQuiet     bool
	flagVerbose   bool
)

// cfg and log are set up once per invocation before any command runs.
var (
	cfg config.Config
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:               "eventbid",
	Short:             "SCA event bid budgeting",
	Long:              "Build event bids, project gate, feast and bed finances, and export the result.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runBidList,
}

// Execute is the main entry point called from main.go.
func Execute() {
	defer func() { _ = log.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "Store driver: memory, sqlite, mysql, xlsx, sheets, mongo, redis, remote")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Store file path, DSN or URL")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Use an in-memory store that is discarded on exit")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// setup loads .env, the config file and the logger. Flags win over the
// environment, which wins over the file.
func setup(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = config.LoadFrom(configPath())
	if err != nil {
		return err
	}
	if flagStore != "" {
		cfg.Store.Driver = flagStore
	}
	if flagDSN != "" {
		cfg.Store.DSN = flagDSN
	}
	if flagEphemeral {
		cfg.Store.Driver = "memory"
	}

	level := cfg.Log.Level
	switch {
	case flagVerbose:
		level = "debug"
	case flagQuiet:
		level = "error"
	}
	log, err = logger.New(logger.Options{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	log.Debug("config loaded",
		zap.String("path", configPath()),
		zap.String("store", cfg.Store.Driver),
	)
	return nil
}

func projectionOptions() (projection.Options, error) {
	policy, err := projection.ParseZeroMarginPolicy(cfg.Projection.ZeroMarginPolicy)
	if err != nil {
		return projection.Options{}, err
	}
	return projection.Options{ZeroMarginPolicy: policy}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	return st, nil
}

func newSession(st store.Store) (*session.Session, error) {
	opts, err := projectionOptions()
	if err != nil {
		return nil, err
	}
	return session.New(st, session.Options{Projection: opts, Logger: log}), nil
}

// withSession opens the store, loads key into a fresh session and runs fn.
// An empty key runs fn on a blank bid.
func withSession(ctx context.Context, key string, fn func(store.Store, *session.Session) error) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	sess, err := newSession(st)
	if err != nil {
		return err
	}
	if key != "" {
		warnings, err := sess.Load(ctx, key)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}
	}
	return fn(st, sess)
}
