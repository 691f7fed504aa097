package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/forecast-etl/internal/config"
	"github.com/couchcryptid/forecast-etl/internal/domain"
)

// Statement is one parameterized SQL statement.
type Statement struct {
	SQL  string
	Args []any
}

// Executor runs statements against the database.
type Executor interface {
	// Execute runs stmt in its own transaction.
	Execute(ctx context.Context, stmt Statement) error
	// ExecuteTx runs stmts in a single transaction; any failure rolls back all of them.
	ExecuteTx(ctx context.Context, stmts []Statement) error
}

// PoolExecutor implements Executor on a pgx connection pool. Each call
// acquires a connection, runs inside a transaction, commits, and releases the
// connection whether or not the statement succeeded.
type PoolExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// Connect creates a pool for cfg. Connections are opened lazily, so an
// unreachable server surfaces on the first Execute as an "acquire" error.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*PoolExecutor, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, &domain.DatabaseError{Op: "connect", Err: err}
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, &domain.DatabaseError{Op: "connect", Err: err}
	}
	return &PoolExecutor{pool: pool, timeout: cfg.StatementTimeout}, nil
}

func (e *PoolExecutor) Execute(ctx context.Context, stmt Statement) error {
	return e.ExecuteTx(ctx, []Statement{stmt})
}

func (e *PoolExecutor) ExecuteTx(ctx context.Context, stmts []Statement) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return &domain.DatabaseError{Op: "acquire", Err: err}
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return &domain.DatabaseError{Op: "begin", Err: err}
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt.SQL, stmt.Args...); err != nil {
			return &domain.DatabaseError{Op: "exec", Err: err}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &domain.DatabaseError{Op: "commit", Err: err}
	}
	return nil
}

// Close releases all pooled connections.
func (e *PoolExecutor) Close() {
	e.pool.Close()
}
