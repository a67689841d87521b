package executor

import (
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"
)

// tracer collects phase marks for one attempt. Marks are reset on every new
// connection so that after redirects the phases describe the final hop.
type tracer struct {
	mu sync.Mutex

	start        time.Time
	hopStart     time.Time
	dnsStart     time.Time
	dnsDone      time.Time
	connectStart time.Time
	connectDone  time.Time
	tlsStart     time.Time
	tlsDone      time.Time
	gotConn      time.Time
	wroteRequest time.Time
	firstByte    time.Time
}

func newTracer() *tracer {
	return &tracer{}
}

func (t *tracer) begin() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.start = time.Now()
	t.hopStart = t.start
}

func (t *tracer) mark(dst *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if dst.IsZero() {
		*dst = time.Now()
	}
}

func (t *tracer) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.hopStart = time.Now()
			t.dnsStart, t.dnsDone = time.Time{}, time.Time{}
			t.connectStart, t.connectDone = time.Time{}, time.Time{}
			t.tlsStart, t.tlsDone = time.Time{}, time.Time{}
			t.gotConn, t.wroteRequest, t.firstByte = time.Time{}, time.Time{}, time.Time{}
		},
		DNSStart:             func(httptrace.DNSStartInfo) { t.mark(&t.dnsStart) },
		DNSDone:              func(httptrace.DNSDoneInfo) { t.mark(&t.dnsDone) },
		ConnectStart:         func(string, string) { t.mark(&t.connectStart) },
		ConnectDone:          func(string, string, error) { t.mark(&t.connectDone) },
		TLSHandshakeStart:    func() { t.mark(&t.tlsStart) },
		TLSHandshakeDone:     func(tls.ConnectionState, error) { t.mark(&t.tlsDone) },
		GotConn:              func(httptrace.GotConnInfo) { t.mark(&t.gotConn) },
		WroteRequest:         func(httptrace.WroteRequestInfo) { t.mark(&t.wroteRequest) },
		GotFirstResponseByte: func() { t.mark(&t.firstByte) },
	}
}

func (t *tracer) timings(end time.Time) Timings {
	t.mu.Lock()
	defer t.mu.Unlock()

	waitEnd := firstSet(t.dnsStart, t.connectStart, t.gotConn)

	return Timings{
		Start:     t.start.UnixMilli(),
		Wait:      ms(t.hopStart, waitEnd),
		DNS:       ms(t.dnsStart, t.dnsDone),
		TCP:       ms(t.connectStart, t.connectDone),
		TLS:       ms(t.tlsStart, t.tlsDone),
		Request:   ms(t.gotConn, t.wroteRequest),
		FirstByte: ms(t.wroteRequest, t.firstByte),
		Download:  ms(t.firstByte, end),
		Total:     ms(t.start, end),
	}
}

func firstSet(marks ...time.Time) time.Time {
	for _, m := range marks {
		if !m.IsZero() {
			return m
		}
	}
	return time.Time{}
}

func ms(from, to time.Time) float64 {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return float64(to.Sub(from).Microseconds()) / 1000
}
