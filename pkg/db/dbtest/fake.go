// Package dbtest provides an in-memory stand-in for db.DBTX.
package dbtest

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Call struct {
	SQL  string
	Args []any
}

// FakeDB records every statement. Exec answers with ExecTag/ExecErr and
// QueryRow with the Row func.
type FakeDB struct {
	mu    sync.Mutex
	calls []Call

	ExecTag string
	ExecErr error
	Row     func(dest ...any) error
}

func (f *FakeDB) record(sql string, args []any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{SQL: sql, Args: args})
}

func (f *FakeDB) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.record(sql, args)
	if f.ExecErr != nil {
		return pgconn.CommandTag{}, f.ExecErr
	}
	return pgconn.NewCommandTag(f.ExecTag), nil
}

func (f *FakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.record(sql, args)
	return nil, errors.New("dbtest: Query not supported")
}

func (f *FakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.record(sql, args)
	if f.Row == nil {
		return row{scan: func(...any) error { return pgx.ErrNoRows }}
	}
	return row{scan: f.Row}
}

type row struct {
	scan func(dest ...any) error
}

func (r row) Scan(dest ...any) error {
	return r.scan(dest...)
}
