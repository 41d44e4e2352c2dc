// Package conn turns operator-supplied connection settings into live
// database handles and answers the catalog questions (databases, tables)
// the transfer engine and its callers need. Passwords are treated as
// opaque strings; persistence and encryption belong to the caller.
package conn

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/lib/pq"

	"github.com/fzseyedi/DatabaseHelper/dialect"
)

// Settings holds everything needed to reach one server.
type Settings struct {
	Driver   string // "sqlserver" or "postgres"
	Host     string
	Port     int
	Instance string // SQL Server named instance, optional
	Database string

	// IntegratedAuth selects OS authentication; User/Password are
	// ignored when it is set.
	IntegratedAuth bool
	User           string
	Password       string

	DialTimeout     time.Duration
	TrustServerCert bool
}

// DatabaseInfo describes one database on a server.
type DatabaseInfo struct {
	Name string
}

// TableInfo describes one user table with its approximate row count.
type TableInfo struct {
	Name string
	Rows int64
}

// DSN builds the driver connection URL for the settings.
func (s Settings) DSN() (string, error) {
	switch s.Driver {
	case "sqlserver", "mssql":
		return s.sqlserverDSN(), nil
	case "postgres", "postgresql":
		return s.postgresDSN(), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", s.Driver)
	}
}

func (s Settings) sqlserverDSN() string {
	q := url.Values{}
	if s.Database != "" {
		q.Set("database", s.Database)
	}
	if s.DialTimeout > 0 {
		q.Set("dial timeout", fmt.Sprintf("%d", int(s.DialTimeout.Seconds())))
	}
	if s.TrustServerCert {
		q.Set("trustservercertificate", "true")
		q.Set("encrypt", "true")
	} else {
		q.Set("encrypt", "disable")
	}

	u := url.URL{
		Scheme:   "sqlserver",
		Host:     hostPort(s.Host, s.Port),
		RawQuery: q.Encode(),
	}
	if s.Instance != "" {
		u.Path = s.Instance
	}
	if !s.IntegratedAuth {
		u.User = url.UserPassword(s.User, s.Password)
	}
	return u.String()
}

func (s Settings) postgresDSN() string {
	q := url.Values{}
	q.Set("sslmode", "disable")
	if s.TrustServerCert {
		q.Set("sslmode", "require")
	}
	if s.DialTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(s.DialTimeout.Seconds())))
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     hostPort(s.Host, s.Port),
		Path:     "/" + s.Database,
		RawQuery: q.Encode(),
	}
	if !s.IntegratedAuth {
		u.User = url.UserPassword(s.User, s.Password)
	}
	return u.String()
}

func hostPort(host string, port int) string {
	if port > 0 {
		return fmt.Sprintf("%s:%d", host, port)
	}
	return host
}

// Dialect returns the SQL dialect matching the settings' driver.
func (s Settings) Dialect() (dialect.Dialect, error) {
	return dialect.ForDriver(s.Driver)
}

// Open connects to the server and verifies the connection.
func Open(ctx context.Context, s Settings) (*sql.DB, error) {
	dsn, err := s.DSN()
	if err != nil {
		return nil, err
	}
	driver := s.Driver
	if driver == "mssql" {
		driver = "sqlserver"
	}
	if driver == "postgresql" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s on %s: %w", driver, s.Host, err)
	}
	return db, nil
}

// TestConnection reports whether the server is reachable with the
// supplied settings.
func TestConnection(ctx context.Context, s Settings) error {
	db, err := Open(ctx, s)
	if err != nil {
		return err
	}
	return db.Close()
}

// ListDatabases returns the non-system databases on the server.
func ListDatabases(ctx context.Context, db *sql.DB, d dialect.Dialect) ([]DatabaseInfo, error) {
	rows, err := db.QueryContext(ctx, d.ListDatabasesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	defer rows.Close()

	var out []DatabaseInfo
	for rows.Next() {
		var info DatabaseInfo
		if err := rows.Scan(&info.Name); err != nil {
			return nil, fmt.Errorf("failed to scan database name: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// ListTables returns the user tables of the connected database with
// their approximate row counts.
func ListTables(ctx context.Context, db *sql.DB, d dialect.Dialect) ([]TableInfo, error) {
	rows, err := db.QueryContext(ctx, d.ListTablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var out []TableInfo
	for rows.Next() {
		var info TableInfo
		if err := rows.Scan(&info.Name, &info.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
