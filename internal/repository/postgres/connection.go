package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/authkeeper/database"
)

// Connection is the pgx pool shared by the user store and the refresh token ledger.
type Connection struct {
	*pgxpool.Pool
}

// PoolOption tunes the pool before it is opened. Zero values are ignored so
// the pgxpool defaults, or pool_* parameters in the DSN, stay in effect.
type PoolOption func(*pgxpool.Config)

func WithMaxConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

func WithMinConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MinConns = n
		}
	}
}

func WithMaxConnLifetime(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnLifetime = d
		}
	}
}

func WithMaxConnIdleTime(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

// poolConfig parses dsn and applies opts. MinConns is capped at MaxConns.
func poolConfig(dsn string, opts ...PoolOption) (*pgxpool.Config, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	for _, opt := range opts {
		opt(conf)
	}
	if conf.MinConns > conf.MaxConns {
		conf.MinConns = conf.MaxConns
	}
	return conf, nil
}

// NewConnection opens the pool and applies pending migrations.
func NewConnection(ctx context.Context, dsn string, opts ...PoolOption) (*Connection, error) {
	conf, err := poolConfig(dsn, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	if err := database.Migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{
		Pool: pool,
	}, nil
}

func (s *Connection) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Connection) Ping(ctx context.Context) error {
	if s.Pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	return s.Pool.Ping(ctx)
}
