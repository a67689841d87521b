package status

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"komonitor/internals/modules/condition"
	"komonitor/internals/modules/executor"
	"komonitor/internals/modules/monitor"
	"komonitor/pkg/apperror"
	"komonitor/pkg/db/dbtest"
	"komonitor/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
)

func testMonitor() monitor.Monitor {
	return monitor.Monitor{ID: "mon-1", OwnerID: "owner-1", URL: "https://example.com", Frequency: 5}
}

func resultWithBody(body string) *executor.Result {
	return &executor.Result{
		Request:  executor.SentRequest{Method: "GET", URL: "https://example.com"},
		Response: executor.Response{StatusCode: 200, Body: &body, Complete: true},
	}
}

func TestNewRecordTruncatesCopy(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"ascii", strings.Repeat("a", 2500)},
		{"multibyte", strings.Repeat("é", 2500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resultWithBody(tt.body)
			rec := NewRecord(testMonitor(), time.UnixMilli(1700000000000), StatusUp, 12, 1, res, nil)

			got := *rec.Response.Response.Body
			if n := utf8.RuneCountInString(got); n != MaxBodyLength {
				t.Errorf("expected %d characters on the record, got %d", MaxBodyLength, n)
			}
			if *res.Response.Body != tt.body {
				t.Error("the probe result body must not be modified")
			}
		})
	}

	t.Run("short body kept", func(t *testing.T) {
		rec := NewRecord(testMonitor(), time.Now(), StatusUp, 1, 1, resultWithBody("ok"), nil)
		if *rec.Response.Response.Body != "ok" {
			t.Errorf("expected body ok, got %q", *rec.Response.Response.Body)
		}
	})
}

func TestNewRecordFields(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	checks := []condition.Result{{Type: condition.TypeCode, Passed: true, Observed: 200}}

	rec := NewRecord(testMonitor(), at, StatusDown, 42.5, 3, resultWithBody("x"), checks)
	if rec.MonitorID != "mon-1" || rec.Timestamp != 1700000000123 {
		t.Errorf("unexpected identity %s/%d", rec.MonitorID, rec.Timestamp)
	}
	if rec.Status != StatusDown || rec.Latency != 42.5 || rec.Attempts != 3 {
		t.Errorf("unexpected outcome %+v", rec)
	}
	if rec.ID.String() == "" || rec.Ref().ID != rec.ID || rec.Ref().Timestamp != rec.Timestamp {
		t.Errorf("unexpected ref %+v", rec.Ref())
	}
	if rec.StatusCode() != 200 {
		t.Errorf("expected status code 200, got %d", rec.StatusCode())
	}

	paused := NewRecord(testMonitor(), at, StatusPaused, NoLatency, 0, nil, nil)
	if paused.Response != nil || paused.Checks == nil || paused.StatusCode() != 0 {
		t.Errorf("unexpected paused record %+v", paused)
	}
}

type fakeStore struct {
	err  error
	recs []Record
}

func (f *fakeStore) Insert(_ context.Context, rec Record) error {
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

type fakeSnapshot struct {
	mu     sync.Mutex
	err    error
	status map[string]string
}

func (f *fakeSnapshot) StoreStatus(_ context.Context, monitorID string, status string, _ int, _ float64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == nil {
		f.status = map[string]string{}
	}
	f.status[monitorID] = status
	return f.err
}

func TestRecorder(t *testing.T) {
	rec := NewRecord(testMonitor(), time.Now(), StatusUp, 10, 1, resultWithBody("ok"), nil)

	t.Run("success writes store and snapshot", func(t *testing.T) {
		store, snap := &fakeStore{}, &fakeSnapshot{}
		r := NewRecorder(store, snap, time.Second, logger.Nop())

		if !r.Record(context.Background(), rec) {
			t.Fatal("expected success")
		}
		if len(store.recs) != 1 || snap.status["mon-1"] != "up" {
			t.Errorf("expected one stored record and an up snapshot, got %d / %v", len(store.recs), snap.status)
		}
	})

	t.Run("store failure reports false", func(t *testing.T) {
		snap := &fakeSnapshot{}
		r := NewRecorder(&fakeStore{err: errors.New("db down")}, snap, time.Second, logger.Nop())

		if r.Record(context.Background(), rec) {
			t.Fatal("expected failure")
		}
		if len(snap.status) != 0 {
			t.Error("snapshot must not be written when the record was not stored")
		}
	})

	t.Run("snapshot failure is ignored", func(t *testing.T) {
		r := NewRecorder(&fakeStore{}, &fakeSnapshot{err: errors.New("redis down")}, time.Second, logger.Nop())
		if !r.Record(context.Background(), rec) {
			t.Fatal("expected success despite snapshot failure")
		}
	})

	t.Run("no snapshotter", func(t *testing.T) {
		r := NewRecorder(&fakeStore{}, nil, time.Second, logger.Nop())
		if !r.Record(context.Background(), rec) {
			t.Fatal("expected success")
		}
	})
}

func TestRepositoryInsert(t *testing.T) {
	rec := NewRecord(testMonitor(), time.UnixMilli(1700000000000), StatusUp, 10, 1, resultWithBody("ok"), nil)

	t.Run("writes one row", func(t *testing.T) {
		fdb := &dbtest.FakeDB{ExecTag: "INSERT 0 1"}
		repo := NewRepository(fdb, logger.Nop())

		if err := repo.Insert(context.Background(), rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		calls := fdb.Calls()
		if len(calls) != 1 || len(calls[0].Args) != 9 {
			t.Fatalf("expected one insert with 9 args, got %+v", calls)
		}
		args := calls[0].Args
		if args[0] != rec.ID.String() || args[1] != "mon-1" || args[2] != int64(1700000000000) || args[3] != "up" {
			t.Errorf("unexpected leading args %v", args[:4])
		}

		var resp executor.Result
		if err := json.Unmarshal(args[6].([]byte), &resp); err != nil {
			t.Fatalf("response column is not json: %v", err)
		}
		if resp.Response.StatusCode != 200 {
			t.Errorf("expected stored status code 200, got %d", resp.Response.StatusCode)
		}
	})

	t.Run("postgres errors are wrapped", func(t *testing.T) {
		fdb := &dbtest.FakeDB{ExecErr: &pgconn.PgError{Code: "23505"}}
		repo := NewRepository(fdb, logger.Nop())

		err := repo.Insert(context.Background(), rec)
		if !apperror.IsKind(err, apperror.Conflict) {
			t.Errorf("expected conflict error, got %v", err)
		}
	})
}
