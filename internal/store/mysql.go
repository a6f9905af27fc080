package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/meridies/eventbid/internal/config"
)

const mysqlErrDuplicateEntry = 1062

// MySQLDSN builds a driver DSN from the [store.mysql] block.
// parseTime=true and loc=UTC keep times consistent.
func MySQLDSN(cfg config.MySQLConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// OpenMySQL connects to MySQL, verifies the connection and ensures the table
// exists. A non-empty dsn takes precedence over cfg.
func OpenMySQL(ctx context.Context, dsn string, cfg config.MySQLConfig, log *zap.Logger) (*SQL, error) {
	if dsn == "" {
		dsn = MySQLDSN(cfg)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	return newSQL(ctx, db, mysqlSchema, " FOR UPDATE", isMySQLDuplicate, log)
}

func isMySQLDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}
