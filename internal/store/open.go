package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
	"github.com/meridies/eventbid/internal/logger"
)

// Drivers lists the accepted values of [store] driver.
var Drivers = []string{"memory", "sqlite", "mysql", "xlsx", "sheets", "mongo", "redis", "remote"}

// Open selects and opens a backend from the store configuration.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	log = logger.Named(log, "store").With(zap.String("driver", cfg.Driver))

	dsn := cfg.DSN
	if dsn == "" {
		dsn = config.DefaultDSN(cfg.Driver)
	}

	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "memory":
		s = NewMemory()
	case "", "sqlite":
		s, err = OpenSQLite(ctx, dsn, log)
	case "mysql":
		s, err = OpenMySQL(ctx, cfg.DSN, cfg.MySQL, log)
	case "xlsx":
		s, err = OpenWorkbook(dsn, log)
	case "sheets":
		s, err = OpenSheets(ctx, cfg.Sheets, log)
	case "mongo":
		s, err = OpenMongo(ctx, cfg.Mongo, log)
	case "redis":
		s, err = OpenRedis(ctx, cfg.Redis, log)
	case "remote":
		s, err = OpenRemote(cfg.Remote, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q (want one of %v)", cfg.Driver, Drivers)
	}
	if err != nil {
		return nil, err
	}
	log.Debug("store opened")
	return s, nil
}
