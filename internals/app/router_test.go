package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/runner"
	"komonitor/pkg/logger"
)

type fakeRunner struct {
	mu      sync.Mutex
	batches [][]monitor.Monitor
	ctxErr  error
}

func (f *fakeRunner) RunBatch(ctx context.Context, monitors []monitor.Monitor) runner.BatchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, monitors)
	f.ctxErr = ctx.Err()
	return runner.BatchResult{Jobs: len(monitors)}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestRouter(fr *fakeRunner, deps map[string]Pinger) http.Handler {
	h := runner.NewHandler(fr, monitor.NewValidator())
	return NewRouter(h, logger.Nop(), deps)
}

func TestHealthz(t *testing.T) {
	t.Run("all dependencies up", func(t *testing.T) {
		r := newTestRouter(&fakeRunner{}, map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{}})
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"postgres":"up"`) {
			t.Errorf("expected a per-dependency report, got %s", rr.Body.String())
		}
	})

	t.Run("a dependency down", func(t *testing.T) {
		r := newTestRouter(&fakeRunner{}, map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{err: errors.New("down")}})
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
		}
	})
}

func TestPostBatch(t *testing.T) {
	valid := `[
		{"monitorId":"m1","ownerId":"o1","url":"https://example.com","frequency":5,"retries":1},
		{"monitorId":"m2","ownerId":"o1","url":"https://example.org","frequency":1,"retries":0,
		 "checks":[{"type":"code","condition":{"comparison":"equal","expected":204}}]}
	]`

	t.Run("runs a valid batch", func(t *testing.T) {
		fr := &fakeRunner{}
		r := newTestRouter(fr, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/batches", strings.NewReader(valid)))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}

		var resp struct {
			Success bool               `json:"success"`
			Data    runner.BatchResult `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !resp.Success || resp.Data.Jobs != 2 {
			t.Errorf("expected 2 jobs, got %+v", resp)
		}
		if len(fr.batches) != 1 || fr.batches[0][1].Checks[0].Condition.Expected != float64(204) {
			t.Errorf("expected the decoded batch to reach the runner, got %+v", fr.batches)
		}
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		fr := &fakeRunner{}
		rr := httptest.NewRecorder()
		newTestRouter(fr, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/batches", strings.NewReader(`{`)))

		if rr.Code != http.StatusBadRequest || len(fr.batches) != 0 {
			t.Errorf("expected 400 without running, got %d", rr.Code)
		}
	})

	t.Run("all monitors invalid returns 400", func(t *testing.T) {
		fr := &fakeRunner{}
		body := `[{"monitorId":"m1","ownerId":"o1","url":"https://example.com","frequency":7,"retries":1}]`
		rr := httptest.NewRecorder()
		newTestRouter(fr, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/batches", strings.NewReader(body)))

		if rr.Code != http.StatusBadRequest || len(fr.batches) != 0 {
			t.Errorf("expected 400 without running, got %d", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "invalid_input") {
			t.Errorf("expected invalid_input kind, got %s", rr.Body.String())
		}
	})

	t.Run("invalid monitors are skipped", func(t *testing.T) {
		fr := &fakeRunner{}
		body := `[
			{"monitorId":"good","ownerId":"o1","url":"https://example.com","frequency":5,"retries":1},
			{"monitorId":"many-retries","ownerId":"o1","url":"https://example.org","frequency":5,"retries":6},
			{"monitorId":"bad","ownerId":"o1","url":"https://example.net","frequency":7,"retries":1}
		]`
		rr := httptest.NewRecorder()
		newTestRouter(fr, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/batches", strings.NewReader(body)))

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
		}
		var resp struct {
			Message string             `json:"message"`
			Data    runner.BatchResult `json:"data"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Data.Jobs != 2 || resp.Data.Rejected != 1 {
			t.Errorf("expected 2 jobs and 1 rejected, got %+v", resp.Data)
		}
		if !strings.Contains(resp.Message, "monitor[2] (bad)") {
			t.Errorf("expected the rejected monitor in the message, got %q", resp.Message)
		}
		if len(fr.batches) != 1 || len(fr.batches[0]) != 2 || fr.batches[0][1].ID != "many-retries" {
			t.Errorf("expected the valid monitors to run, got %+v", fr.batches)
		}
	})

	t.Run("empty batch returns 400", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newTestRouter(&fakeRunner{}, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/batches", strings.NewReader(`[]`)))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rr.Code)
		}
	})
}
