package persistence

import (
	"database/sql"
	"fmt"

	"social-integration/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// PostgresDSN builds a lib/pq connection string from the configured database.
func PostgresDSN(cfg configuration.Db) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
}

func NewPostgreSQLDB() (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresDSN(configuration.C.Database.Psql))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	configurePool(db)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
