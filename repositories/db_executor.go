package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Executor is implemented by the connection pool and by an open transaction.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// satisfied by *pgxpool.Pool and by pgxmock.PgxPoolIface
type connectionPool interface {
	Executor
	Begin(ctx context.Context) (pgx.Tx, error)
}
