package webhook

import (
	"komonitor/internals/modules/condition"
	"komonitor/internals/modules/status"
)

// ExternalStatus is the status record as shown to webhook receivers.
// Request headers and body are left out, as are the monitor's headers,
// body and webhook URL.
type ExternalStatus struct {
	ID        string            `json:"id"`
	MonitorID string            `json:"monitor_id"`
	Timestamp int64             `json:"timestamp"`
	Status    string            `json:"status"`
	Latency   float64           `json:"latency"`
	Attempts  int               `json:"attempts"`
	Request   *ExternalRequest  `json:"request,omitempty"`
	Response  *ExternalResponse `json:"response,omitempty"`
	Checks    []ExternalCheck   `json:"checks"`
	Monitor   ExternalMonitor   `json:"monitor"`
}

type ExternalRequest struct {
	Method          string `json:"method"`
	URL             string `json:"url"`
	FollowRedirects bool   `json:"follow_redirects"`
	TimeoutMs       int64  `json:"timeout_ms"`
	UserAgent       string `json:"user_agent"`
}

type ExternalTimings struct {
	Start     int64   `json:"start"`
	Wait      float64 `json:"wait"`
	DNS       float64 `json:"dns"`
	TCP       float64 `json:"tcp"`
	TLS       float64 `json:"tls"`
	Request   float64 `json:"request"`
	FirstByte float64 `json:"first_byte"`
	Download  float64 `json:"download"`
	Total     float64 `json:"total"`
}

type ExternalResponse struct {
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Headers       map[string]string `json:"headers"`
	Body          *string           `json:"body"`
	URL           string            `json:"url"`
	RedirectURLs  []string          `json:"redirect_urls"`
	Timings       ExternalTimings   `json:"timings"`
	RetryCount    int               `json:"retry_count"`
	Complete      bool              `json:"complete"`
	Aborted       bool              `json:"aborted"`
	Error         string            `json:"error,omitempty"`
}

type ExternalCheck struct {
	Type     string `json:"type"`
	Passed   bool   `json:"passed"`
	Observed any    `json:"observed,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type ExternalMonitor struct {
	ID              string           `json:"id"`
	OwnerID         string           `json:"owner_id"`
	URL             string           `json:"url"`
	Method          string           `json:"method,omitempty"`
	FollowRedirects bool             `json:"follow_redirects"`
	Frequency       int              `json:"frequency"`
	Retries         int              `json:"retries"`
	Checks          []condition.Spec `json:"checks"`
	Paused          bool             `json:"paused"`
}

func Externalize(rec status.Record) ExternalStatus {
	out := ExternalStatus{
		ID:        rec.ID.String(),
		MonitorID: rec.MonitorID,
		Timestamp: rec.Timestamp,
		Status:    string(rec.Status),
		Latency:   rec.Latency,
		Attempts:  rec.Attempts,
		Checks:    make([]ExternalCheck, 0, len(rec.Checks)),
		Monitor: ExternalMonitor{
			ID:              rec.Monitor.ID,
			OwnerID:         rec.Monitor.OwnerID,
			URL:             rec.Monitor.URL,
			Method:          rec.Monitor.Method,
			FollowRedirects: rec.Monitor.FollowRedirects,
			Frequency:       int(rec.Monitor.Frequency),
			Retries:         rec.Monitor.Retries,
			Checks:          rec.Monitor.Checks,
			Paused:          rec.Monitor.Paused,
		},
	}
	if out.Monitor.Checks == nil {
		out.Monitor.Checks = []condition.Spec{}
	}

	for _, c := range rec.Checks {
		out.Checks = append(out.Checks, ExternalCheck{
			Type:     string(c.Type),
			Passed:   c.Passed,
			Observed: c.Observed,
			Reason:   c.Reason,
		})
	}

	if rec.Response != nil {
		req := rec.Response.Request
		out.Request = &ExternalRequest{
			Method:          req.Method,
			URL:             req.URL,
			FollowRedirects: req.Options.FollowRedirects,
			TimeoutMs:       req.Options.TimeoutMs,
			UserAgent:       req.Options.UserAgent,
		}

		resp := rec.Response.Response
		t := resp.Timings
		out.Response = &ExternalResponse{
			StatusCode:    resp.StatusCode,
			StatusMessage: resp.StatusMessage,
			Headers:       resp.Headers,
			Body:          resp.Body,
			URL:           resp.URL,
			RedirectURLs:  resp.RedirectURLs,
			Timings: ExternalTimings{
				Start:     t.Start,
				Wait:      t.Wait,
				DNS:       t.DNS,
				TCP:       t.TCP,
				TLS:       t.TLS,
				Request:   t.Request,
				FirstByte: t.FirstByte,
				Download:  t.Download,
				Total:     t.Total,
			},
			RetryCount: resp.RetryCount,
			Complete:   resp.Complete,
			Aborted:    resp.Aborted,
			Error:      resp.Error,
		}
	}

	return out
}
