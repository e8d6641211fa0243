package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/instaclone-server/internal/config"
)

// DSN returns DATABASE_URL when set, otherwise builds one from the PG_* settings.
func DSN(cfg config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		url.QueryEscape(cfg.PGUser), url.QueryEscape(cfg.PGPassword), cfg.PGHost, cfg.PGPort, cfg.PGDatabase)
}

func NewPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	if cfg.PGSSL {
		poolConfig.ConnConfig.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
