// Package database owns the process-wide Postgres pool. Generic record
// statements run on pgx directly; gorm and bun handles share the same pool
// through database/sql for the report and composite form services.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/bitechdev/furniture-admin/pkg/logger"
)

// Querier is what the record service needs from a connection pool.
type Querier interface {
	// Query returns every row as a column-name keyed map.
	Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	// Exec returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// Options describes the connection. Zero values fall back to the pgx
// defaults, except MaxConns which defaults to 10.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// ConnString renders opts as a libpq keyword/value string.
func (o Options) ConnString() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		o.Host,
		o.Port,
		o.User,
		o.Database,
		sslMode,
	)
	if o.Password != "" {
		connStr += fmt.Sprintf(" password=%s", o.Password)
	}
	return connStr
}

// Pool wraps pgxpool.Pool.
type Pool struct {
	pool *pgxpool.Pool

	sqlOnce sync.Once
	sqlDB   *sql.DB
}

// NewPool connects and pings. A pool that cannot reach the server is never
// returned.
func NewPool(ctx context.Context, opts Options) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.ConnString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse connection config")
	}

	poolConfig.MaxConns = opts.MaxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "failed to ping database %s on %s:%d", opts.Database, opts.Host, opts.Port)
	}

	logger.Info("Connected to database %s on %s:%d (max %d connections)", opts.Database, opts.Host, opts.Port, poolConfig.MaxConns)
	return &Pool{pool: pool}, nil
}

// Close releases the pool and the database/sql handle built on it.
func (p *Pool) Close() {
	if p.sqlDB != nil {
		if err := p.sqlDB.Close(); err != nil {
			logger.Warn("Error closing sql handle: %v", err)
		}
	}
	if p.pool != nil {
		p.pool.Close()
	}
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Pool) Query(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0)
	fieldDescriptions := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescriptions))
		for i, fd := range fieldDescriptions {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

func (p *Pool) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// SQLDB returns a database/sql handle drawing from the same pool.
func (p *Pool) SQLDB() *sql.DB {
	p.sqlOnce.Do(func() {
		p.sqlDB = stdlib.OpenDBFromPool(p.pool)
	})
	return p.sqlDB
}

// Watch pings every interval until ctx is done and calls onFailure with the
// first failed ping. There is no degraded mode: callers are expected to stop
// the process.
func (p *Pool) Watch(ctx context.Context, interval time.Duration, onFailure func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := p.pool.Ping(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				onFailure(errors.Wrap(err, "database ping failed"))
				return
			}
		}
	}
}
