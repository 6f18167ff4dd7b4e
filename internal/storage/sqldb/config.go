package sqldb

import "time"

// Supported database/sql driver names
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Config holds relational database settings
type Config struct {
	// Driver is DriverSQLite or DriverPostgres
	Driver string

	// DSN is a file path for sqlite or a connection URL for postgres
	DSN string

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Migrate applies the embedded schema on open
	Migrate bool
}

// DefaultConfig returns a local sqlite database
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             "data/threestones.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		Migrate:         true,
	}
}
