// Package database opens the single relational store handle the service
// works with. The connection is attempted once at startup; any failure is
// returned to the caller, which must not go on serving requests.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Supported driver names, as registered with database/sql.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
)

// Drivers lists the driver names accepted by Open.
func Drivers() []string {
	return []string{DriverMySQL, DriverPostgres}
}

// Settings is the connection configuration of the relational store.
type Settings struct {
	Host     string
	Name     string
	User     string
	Password string
}

// DSN renders the settings as a data source name understood by driverName.
// Both renditions pin the client character set to UTF-8.
func (s Settings) DSN(driverName string) (string, error) {
	switch driverName {
	case DriverMySQL:
		cfg := mysql.NewConfig()
		cfg.User = s.User
		cfg.Passwd = s.Password
		cfg.Net = "tcp"
		cfg.Addr = withDefaultPort(s.Host, "3306")
		cfg.DBName = s.Name
		cfg.ParseTime = true
		cfg.Params = map[string]string{"charset": "utf8"}
		return cfg.FormatDSN(), nil

	case DriverPostgres:
		return fmt.Sprintf(
			"host=%s dbname=%s user=%s password=%s client_encoding=UTF8",
			quoteKeywordValue(s.Host),
			quoteKeywordValue(s.Name),
			quoteKeywordValue(s.User),
			quoteKeywordValue(s.Password),
		), nil
	}

	return "", fmt.Errorf("unsupported database driver %q", driverName)
}

func withDefaultPort(host, port string) string {
	if strings.HasPrefix(host, "/") {
		return host
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), port)
}

// quoteKeywordValue quotes a libpq keyword/value item when needed.
func quoteKeywordValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(value) + "'"
}

// Opener mirrors sql.Open.
type Opener func(driverName, dataSourceName string) (*sql.DB, error)

type initOptions struct {
	opener Opener
}

// InitOption tunes Open.
type InitOption func(*initOptions)

// WithOpener replaces sql.Open, mostly for tests that need to see the exact
// DSN or force a connection failure.
func WithOpener(opener Opener) InitOption {
	return func(options *initOptions) {
		options.opener = opener
	}
}

// DB is the live handle shared by request handlers.
type DB struct {
	database *sql.DB
}

// Open makes exactly one attempt to connect with the given settings: it
// opens the handle and pings it within connectionTimeout. No retry is made.
func Open(
	ctx context.Context,
	driverName string,
	settings Settings,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*DB, error) {
	options := &initOptions{
		opener: sql.Open,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	dsn, err := settings.DSN(driverName)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	database, err := options.opener(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := database.PingContext(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return &DB{database: database}, nil
}

// Ping checks that the connection is still alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.database.PingContext(ctx)
}

// SQL exposes the underlying handle for data access code.
func (db *DB) SQL() *sql.DB {
	return db.database
}

// Close releases the connection.
func (db *DB) Close() error {
	return db.database.Close()
}
