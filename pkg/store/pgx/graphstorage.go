package pgx

import (
	"context"
	"sync"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lacuna-ai/lacuna/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.GraphStorage on PostgreSQL with
// pgvector for embedding similarity. Writes within one save call run in
// a single transaction; the mutex keeps concurrent label/metrics writes
// from interleaving on a shared connection.
//
// A GraphDBStorage should be created using NewGraphDBStorageWithConnection.
type GraphDBStorage struct {
	conn   pgxIConn
	dbLock sync.Mutex
}

// NewGraphDBStorageWithConnection creates a GraphDBStorage using an
// existing connection or pool. The caller owns the connection lifecycle.
func NewGraphDBStorageWithConnection(conn pgxIConn) (*GraphDBStorage, error) {
	return &GraphDBStorage{conn: conn}, nil
}

var _ store.GraphStorage = (*GraphDBStorage)(nil)

// inTx runs fn inside a transaction, rolling back on error.
func (s *GraphDBStorage) inTx(ctx context.Context, fn func(tx pgxv5.Tx) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
