// Package postgres is the opt-in store for parse payloads. Nothing in the
// pipeline depends on it; callers wire it in when persist.results is set.
package postgres

import (
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"clarabill/internal/config"
)

// NewDB opens the payload store and verifies connectivity.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres.NewDB: connecting to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)

	log.Printf("postgres.NewDB: connected to %s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
	return db, nil
}
