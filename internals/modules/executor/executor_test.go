package executor

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"komonitor/config"
	"komonitor/pkg/httpclient"
)

func testProbeConfig() *config.ProbeConfig {
	return &config.ProbeConfig{
		Timeout:          5 * time.Second,
		UserAgent:        "komonitor",
		MaxRedirects:     10,
		TransportRetries: 1,
		MaxBodyBytes:     1 << 20,
	}
}

func newTestProber(cfg *config.ProbeConfig) *Prober {
	return NewProber(cfg, httpclient.NewProbeTransport())
}

// flakyTransport fails the first n round trips with a connection reset.
type flakyTransport struct {
	mu    sync.Mutex
	fails int
	calls int
	next  http.RoundTripper
}

func (f *flakyTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.fails
	f.mu.Unlock()

	if fail {
		return nil, &net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}
	}
	return f.next.RoundTrip(r)
}

// captured holds what a test server saw, guarded for the race detector.
type captured struct {
	mu     sync.Mutex
	ua     string
	method string
	body   string
}

func (c *captured) get() (ua, method, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ua, c.method, c.body
}

func TestProbeSuccess(t *testing.T) {
	var seen captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.mu.Lock()
		seen.ua = r.UserAgent()
		seen.method = r.Method
		seen.mu.Unlock()
		w.Header().Set("X-Test", "yes")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	p := newTestProber(testProbeConfig())
	res := p.Probe(context.Background(), Request{
		URL:     srv.URL,
		Method:  "get",
		Headers: map[string]string{"User-Agent": "spoofed", "X-Custom": "1"},
	})

	resp := res.Response
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", resp.StatusCode, resp.Error)
	}
	if !resp.Complete || resp.Aborted {
		t.Errorf("expected complete, non-aborted response, got complete=%v aborted=%v", resp.Complete, resp.Aborted)
	}
	if resp.Body == nil || *resp.Body != `{"status":"ok"}` {
		t.Errorf("unexpected body %v", resp.Body)
	}
	if resp.Headers["x-test"] != "yes" {
		t.Errorf("expected lower-cased header x-test, got %v", resp.Headers)
	}
	if len(resp.RedirectURLs) != 1 || resp.RedirectURLs[0] != srv.URL {
		t.Errorf("expected redirect chain [%s], got %v", srv.URL, resp.RedirectURLs)
	}
	if resp.Timings.Start == 0 || resp.Timings.Total <= 0 {
		t.Errorf("expected timings to be recorded, got %+v", resp.Timings)
	}
	gotUA, gotMethod, _ := seen.get()
	if gotUA != "komonitor" {
		t.Errorf("expected user agent komonitor, got %q", gotUA)
	}
	if gotMethod != http.MethodGet {
		t.Errorf("expected GET, got %s", gotMethod)
	}
	if res.Request.Headers["User-Agent"] != "komonitor" || res.Request.Headers["X-Custom"] != "1" {
		t.Errorf("unexpected sent headers %v", res.Request.Headers)
	}
	if res.Request.Options.TimeoutMs != 5000 {
		t.Errorf("expected timeout 5000ms on sent request, got %d", res.Request.Options.TimeoutMs)
	}
}

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"get", http.MethodGet},
		{"POST", http.MethodPost},
		{" patch ", http.MethodPatch},
		{"head", http.MethodHead},
		{"delete", http.MethodDelete},
		{"put", http.MethodPut},
		{"TRACE", http.MethodGet},
		{"", http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeMethod(tt.in); got != tt.want {
				t.Errorf("NormalizeMethod(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestProbeSendsBody(t *testing.T) {
	var seen captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen.mu.Lock()
		seen.body = string(b)
		seen.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := newTestProber(testProbeConfig())
	res := p.Probe(context.Background(), Request{URL: srv.URL, Method: "post", Body: `{"ping":true}`})

	if res.Response.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", res.Response.StatusCode)
	}
	if _, _, gotBody := seen.get(); gotBody != `{"ping":true}` {
		t.Errorf("expected body to be sent, got %q", gotBody)
	}
	if res.Request.Body != `{"ping":true}` {
		t.Errorf("expected body on sent request, got %q", res.Request.Body)
	}
}

func redirectServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/c", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "done")
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	return httptest.NewServer(mux)
}

func TestProbeRedirects(t *testing.T) {
	srv := redirectServer()
	defer srv.Close()

	t.Run("followed hops are recorded", func(t *testing.T) {
		p := newTestProber(testProbeConfig())
		res := p.Probe(context.Background(), Request{URL: srv.URL + "/a", FollowRedirects: true})

		resp := res.Response
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, resp.Error)
		}
		want := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c"}
		if strings.Join(resp.RedirectURLs, ",") != strings.Join(want, ",") {
			t.Errorf("expected chain %v, got %v", want, resp.RedirectURLs)
		}
		if resp.URL != srv.URL+"/c" {
			t.Errorf("expected final url %s/c, got %s", srv.URL, resp.URL)
		}
	})

	t.Run("not followed returns the 3xx", func(t *testing.T) {
		p := newTestProber(testProbeConfig())
		res := p.Probe(context.Background(), Request{URL: srv.URL + "/a", FollowRedirects: false})

		resp := res.Response
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("expected 302, got %d", resp.StatusCode)
		}
		if len(resp.RedirectURLs) != 1 || resp.RedirectURLs[0] != srv.URL+"/a" {
			t.Errorf("expected chain of only the original url, got %v", resp.RedirectURLs)
		}
	})

	t.Run("redirect limit fails the probe", func(t *testing.T) {
		cfg := testProbeConfig()
		cfg.MaxRedirects = 3
		p := newTestProber(cfg)
		res := p.Probe(context.Background(), Request{URL: srv.URL + "/loop", FollowRedirects: true})

		resp := res.Response
		if resp.StatusCode != -1 || resp.StatusMessage != "MAX_REDIRECTS" {
			t.Errorf("expected -1 MAX_REDIRECTS, got %d %s", resp.StatusCode, resp.StatusMessage)
		}
		if resp.RetryCount != 0 {
			t.Errorf("redirect limit must not be retried, got retry count %d", resp.RetryCount)
		}
	})
}

func TestProbeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newTestProber(testProbeConfig())
	res := p.Probe(context.Background(), Request{URL: url})

	resp := res.Response
	if resp.StatusCode != -1 {
		t.Fatalf("expected status -1, got %d", resp.StatusCode)
	}
	if !resp.Aborted || resp.Complete {
		t.Errorf("expected aborted, incomplete response, got aborted=%v complete=%v", resp.Aborted, resp.Complete)
	}
	if resp.StatusMessage != "CONNECTION_REFUSED" {
		t.Errorf("expected CONNECTION_REFUSED, got %s (%s)", resp.StatusMessage, resp.Error)
	}
	if resp.Body != nil {
		t.Errorf("expected nil body, got %q", *resp.Body)
	}
	if len(resp.Headers) != 0 {
		t.Errorf("expected empty headers, got %v", resp.Headers)
	}
	if len(resp.RedirectURLs) != 1 || resp.RedirectURLs[0] != url {
		t.Errorf("expected chain [%s], got %v", url, resp.RedirectURLs)
	}
	if resp.Timings.Start == 0 || resp.Timings.Total != 0 {
		t.Errorf("expected only start timing, got %+v", resp.Timings)
	}
	if _, ok := resp.Latency(); ok {
		t.Error("failed probe must not report a latency")
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	cfg := testProbeConfig()
	cfg.Timeout = 50 * time.Millisecond
	cfg.TransportRetries = 0
	p := newTestProber(cfg)

	res := p.Probe(context.Background(), Request{URL: srv.URL})
	if res.Response.StatusCode != -1 || res.Response.StatusMessage != "TIMEOUT" {
		t.Errorf("expected -1 TIMEOUT, got %d %s", res.Response.StatusCode, res.Response.StatusMessage)
	}
}

func TestProbeInvalidRequest(t *testing.T) {
	p := newTestProber(testProbeConfig())
	res := p.Probe(context.Background(), Request{URL: "http://[::1"})

	if res.Response.StatusCode != -1 || res.Response.StatusMessage != "INVALID_REQUEST" {
		t.Errorf("expected -1 INVALID_REQUEST, got %d %s", res.Response.StatusCode, res.Response.StatusMessage)
	}
}

func TestProbeRetries(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Run("one retry on transport error", func(t *testing.T) {
		ft := &flakyTransport{fails: 1, next: httpclient.NewProbeTransport()}
		p := NewProber(testProbeConfig(), ft)

		res := p.Probe(context.Background(), Request{URL: srv.URL})
		if res.Response.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 after retry, got %d (%s)", res.Response.StatusCode, res.Response.Error)
		}
		if res.Response.RetryCount != 1 {
			t.Errorf("expected retry count 1, got %d", res.Response.RetryCount)
		}
		if ft.calls != 2 {
			t.Errorf("expected 2 transport calls, got %d", ft.calls)
		}
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		ft := &flakyTransport{fails: 5, next: httpclient.NewProbeTransport()}
		p := NewProber(testProbeConfig(), ft)

		res := p.Probe(context.Background(), Request{URL: srv.URL})
		if res.Response.StatusCode != -1 || res.Response.StatusMessage != "CONNECTION_RESET" {
			t.Errorf("expected -1 CONNECTION_RESET, got %d %s", res.Response.StatusCode, res.Response.StatusMessage)
		}
		if ft.calls != 2 {
			t.Errorf("expected 2 transport calls, got %d", ft.calls)
		}
	})

	t.Run("status codes are not retried", func(t *testing.T) {
		mu.Lock()
		hits = 0
		mu.Unlock()

		p := newTestProber(testProbeConfig())
		res := p.Probe(context.Background(), Request{URL: srv.URL + "/fail"})
		if res.Response.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", res.Response.StatusCode)
		}

		mu.Lock()
		defer mu.Unlock()
		if hits != 1 || res.Response.RetryCount != 0 {
			t.Errorf("expected a single request, got hits=%d retryCount=%d", hits, res.Response.RetryCount)
		}
	})
}

func TestProbeBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	cfg := testProbeConfig()
	cfg.MaxBodyBytes = 10
	p := newTestProber(cfg)

	res := p.Probe(context.Background(), Request{URL: srv.URL})
	if res.Response.Body == nil || len(*res.Response.Body) != 10 {
		t.Errorf("expected body capped at 10 bytes, got %v", res.Response.Body)
	}
}
