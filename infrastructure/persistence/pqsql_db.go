package persistence

import (
	"database/sql"
	"fmt"

	"vidfeed/infrastructure/configuration"

	_ "github.com/lib/pq"
)

// NewPostgreSQLDB opens the submission log on PostgreSQL.
func NewPostgreSQLDB() (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresDSN(configuration.C.Database.Psql))
	if err != nil {
		return nil, err
	}
	return pooled(db)
}

func postgresDSN(cfg configuration.Db) string {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s sslmode=%s", cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)
	if cfg.User != "" {
		dsn += " user=" + cfg.User
	}
	if cfg.Password != "" {
		dsn += " password=" + cfg.Password
	}
	return dsn
}
