package store

// Both SQL backends use one table; (kind, entry_key) is the primary key and
// payload holds the serialized record verbatim.

var sqliteSchema = []string{`
CREATE TABLE IF NOT EXISTS entries (
    kind                 TEXT NOT NULL,
    entry_key            TEXT NOT NULL,
    version              INTEGER NOT NULL,
    updated_at           TEXT NOT NULL,
    payload              TEXT NOT NULL,
    PRIMARY KEY (kind, entry_key)
)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_updated ON entries(updated_at)`,
}

var mysqlSchema = []string{`
CREATE TABLE IF NOT EXISTS entries (
    kind                 VARCHAR(32)  NOT NULL,
    entry_key            VARCHAR(191) NOT NULL,
    version              BIGINT       NOT NULL,
    updated_at           VARCHAR(32)  NOT NULL,
    payload              LONGTEXT     NOT NULL,
    PRIMARY KEY (kind, entry_key)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
