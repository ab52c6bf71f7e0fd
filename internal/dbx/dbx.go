// Package dbx holds the minimal pgx surface every domain repository needs,
// so a Repository can be constructed over either a pooled connection or an
// in-flight transaction without two code paths.
package dbx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting a
// Repository run unchanged whether it's given a pool or a transaction
// (see storage.Container.WithTransaction).
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
