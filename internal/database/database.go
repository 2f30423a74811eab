package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/01moynul/tvshop-golang/internal/config"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

// OpenDB creates the primary Read/Write connection pool from the DB settings.
func OpenDB(ctx context.Context, cfg config.DBConfig, logger zerolog.Logger) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database: empty DSN")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	logger.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Dur("conn_max_lifetime", cfg.ConnMaxLifetime).
		Msg("database connection pool established")
	return db, nil
}
