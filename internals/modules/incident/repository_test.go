package incident

import (
	"context"
	"errors"
	"testing"

	"komonitor/pkg/apperror"
	"komonitor/pkg/db/dbtest"
	"komonitor/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRepositoryLatest(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		repo := NewRepository(&dbtest.FakeDB{}, logger.Nop())

		inv, err := repo.Latest(context.Background(), "mon-1")
		if err != nil || inv != nil {
			t.Errorf("expected nil, nil; got %v, %v", inv, err)
		}
	})

	t.Run("decodes json columns", func(t *testing.T) {
		fdb := &dbtest.FakeDB{Row: func(dest ...any) error {
			*dest[0].(*string) = "mon-1"
			*dest[1].(*int64) = 1700000000000
			*dest[2].(*[]byte) = []byte(`{"channels":["email","slack"]}`)
			*dest[3].(*bool) = true
			*dest[4].(*[]byte) = []byte(`[{"id":"6f1c1a3e-4d5b-4c7a-9e0f-1a2b3c4d5e6f","timestamp":1700000000000}]`)
			return nil
		}}
		repo := NewRepository(fdb, logger.Nop())

		inv, err := repo.Latest(context.Background(), "mon-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inv.MonitorID != "mon-1" || inv.Timestamp != 1700000000000 || !inv.Ongoing {
			t.Errorf("unexpected invocation %+v", inv)
		}
		if len(inv.Alert.Channels) != 2 || len(inv.Triggers) != 1 || inv.Triggers[0].Timestamp != 1700000000000 {
			t.Errorf("unexpected json fields %+v", inv)
		}
		if calls := fdb.Calls(); len(calls) != 1 || calls[0].Args[0] != "mon-1" {
			t.Errorf("expected lookup by monitor id, got %+v", calls)
		}
	})

	t.Run("query errors are wrapped", func(t *testing.T) {
		fdb := &dbtest.FakeDB{Row: func(...any) error { return context.DeadlineExceeded }}
		repo := NewRepository(fdb, logger.Nop())

		_, err := repo.Latest(context.Background(), "mon-1")
		if !apperror.IsKind(err, apperror.RequestTimeout) {
			t.Errorf("expected request timeout, got %v", err)
		}
	})
}

func TestRepositoryResolve(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want bool
	}{
		{"row updated", "UPDATE 1", true},
		{"already resolved", "UPDATE 0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fdb := &dbtest.FakeDB{ExecTag: tt.tag}
			repo := NewRepository(fdb, logger.Nop())

			won, err := repo.Resolve(context.Background(), "mon-1", 42)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if won != tt.want {
				t.Errorf("expected %v, got %v", tt.want, won)
			}

			args := fdb.Calls()[0].Args
			if args[0] != "mon-1" || args[1] != int64(42) {
				t.Errorf("expected conditional update on (mon-1, 42), got %v", args)
			}
		})
	}

	t.Run("database error", func(t *testing.T) {
		fdb := &dbtest.FakeDB{ExecErr: &pgconn.PgError{Code: "40001"}}
		repo := NewRepository(fdb, logger.Nop())

		won, err := repo.Resolve(context.Background(), "mon-1", 42)
		if won || !apperror.IsKind(err, apperror.DatabaseErr) {
			t.Errorf("expected database error, got %v, %v", won, err)
		}
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			t.Error("expected the postgres error to stay in the chain")
		}
	})
}
