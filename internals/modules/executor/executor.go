package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"komonitor/config"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodHead:   {},
	http.MethodDelete: {},
}

var errTooManyRedirects = errors.New("too many redirects")

// NormalizeMethod upper-cases the method and falls back to GET for anything
// outside the supported set.
func NormalizeMethod(method string) string {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := allowedMethods[m]; ok {
		return m
	}
	return http.MethodGet
}

// Prober performs uptime probes. It is safe for concurrent use; every call
// carries its own deadline.
type Prober struct {
	transport    http.RoundTripper
	timeout      time.Duration
	userAgent    string
	maxRedirects int
	retries      int
	maxBodyBytes int64
}

func NewProber(cfg *config.ProbeConfig, transport http.RoundTripper) *Prober {
	return &Prober{
		transport:    transport,
		timeout:      cfg.Timeout,
		userAgent:    cfg.UserAgent,
		maxRedirects: cfg.MaxRedirects,
		retries:      min(max(cfg.TransportRetries, 0), 1),
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Probe issues the request and never fails: transport errors come back as a
// synthetic response with status code -1.
func (p *Prober) Probe(ctx context.Context, req Request) Result {
	method := NormalizeMethod(req.Method)
	sent := p.sentRequest(method, req)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		resp, err := p.do(ctx, method, req)
		if err == nil {
			resp.RetryCount = attempt
			return Result{Request: sent, Response: resp}
		}
		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}

	return Result{Request: sent, Response: failedResponse(req.URL, lastErr, start)}
}

func (p *Prober) sentRequest(method string, req Request) SentRequest {
	headers := make(map[string]string, len(req.Headers)+1)
	for k, v := range req.Headers {
		if strings.EqualFold(k, "User-Agent") {
			continue
		}
		headers[k] = v
	}
	headers["User-Agent"] = p.userAgent

	sent := SentRequest{
		Method:  method,
		URL:     req.URL,
		Headers: headers,
		Options: Options{
			FollowRedirects: req.FollowRedirects,
			MaxRedirects:    p.maxRedirects,
			TimeoutMs:       p.timeout.Milliseconds(),
			Retries:         p.retries,
			UserAgent:       p.userAgent,
		},
	}
	if hasBody(method) {
		sent.Body = req.Body
	}
	return sent
}

func (p *Prober) do(ctx context.Context, method string, req Request) (Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var body io.Reader
	if hasBody(method) && req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	tr := newTracer()
	httpReq, err := http.NewRequestWithContext(httptrace.WithClientTrace(attemptCtx, tr.clientTrace()), method, req.URL, body)
	if err != nil {
		return Response{}, &invalidRequestError{err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set("User-Agent", p.userAgent)

	redirects := []string{req.URL}
	client := &http.Client{
		Transport: p.transport,
		CheckRedirect: func(next *http.Request, via []*http.Request) error {
			if !req.FollowRedirects {
				return http.ErrUseLastResponse
			}
			if len(via) > p.maxRedirects {
				return errTooManyRedirects
			}
			redirects = append(redirects, next.URL.String())
			return nil
		},
	}

	tr.begin()
	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBodyBytes))
	end := time.Now()
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}
	text := string(raw)

	return Response{
		StatusCode:    resp.StatusCode,
		StatusMessage: http.StatusText(resp.StatusCode),
		Headers:       flattenHeaders(resp.Header),
		Body:          &text,
		URL:           resp.Request.URL.String(),
		RedirectURLs:  redirects,
		Timings:       tr.timings(end),
		Complete:      true,
		Aborted:       false,
	}, nil
}

func failedResponse(url string, err error, start time.Time) Response {
	resp := Response{
		StatusCode:    -1,
		StatusMessage: classifyError(err),
		Headers:       map[string]string{},
		URL:           url,
		RedirectURLs:  []string{url},
		Timings:       Timings{Start: start.UnixMilli()},
		Complete:      false,
		Aborted:       true,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}
