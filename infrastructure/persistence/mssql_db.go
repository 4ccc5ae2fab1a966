package persistence

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"time"

	"social-integration/infrastructure/configuration"

	_ "github.com/microsoft/go-mssqldb"
)

// MSSQLDSN builds a sqlserver:// URL. Loopback hosts trust the server certificate since local
// containers ship a self-signed one.
func MSSQLDSN(cfg configuration.Db) string {
	q := url.Values{"encrypt": {"true"}}
	if cfg.Name != "" {
		q.Set("database", cfg.Name)
	}
	if cfg.Host == "localhost" || cfg.Host == "127.0.0.1" {
		q.Set("TrustServerCertificate", "true")
	}
	u := url.URL{Scheme: "sqlserver", Host: net.JoinHostPort(cfg.Host, cfg.Port), RawQuery: q.Encode()}
	switch {
	case cfg.User != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.User, cfg.Password)
	case cfg.User != "":
		u.User = url.User(cfg.User)
	}
	return u.String()
}

// NewMSSQLDB opens the SQL Server / Azure SQL credential store.
func NewMSSQLDB() (*sql.DB, error) {
	db, err := sql.Open("sqlserver", MSSQLDSN(configuration.C.Database.Mssql))
	if err != nil {
		return nil, fmt.Errorf("open mssql: %w", err)
	}
	configurePool(db)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mssql: %w", err)
	}
	return db, nil
}

// configurePool applies the pool limits shared by the database/sql stores.
func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(time.Minute)
	db.SetConnMaxLifetime(5 * time.Minute)
}
