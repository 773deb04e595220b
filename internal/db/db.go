package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// poolMaxConns: item_db читается один раз на load/reload, interreg пишется при остановке.
const poolMaxConns = 4

// DB — пул соединений к базе с таблицами item_db, item_db2 и interreg.
type DB struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a DB handle.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database dsn: %w", err)
	}
	cfg.MaxConns = poolMaxConns
	cfg.ConnConfig.RuntimeParams["application_name"] = "itemdb"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	slog.Info("connected to item database",
		"host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &DB{pool: pool}, nil
}

func (d *DB) Close() {
	d.pool.Close()
}

// Pool returns the underlying pgx pool for repositories.
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}
