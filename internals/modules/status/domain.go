package status

import (
	"time"
	"unicode/utf8"

	"komonitor/internals/modules/condition"
	"komonitor/internals/modules/executor"
	"komonitor/internals/modules/monitor"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUp     Status = "up"
	StatusDown   Status = "down"
	StatusPaused Status = "paused"
)

// MaxBodyLength caps the response body kept on a persisted record, in characters.
const MaxBodyLength = 2000

// NoLatency marks a record for which no attempt produced a response.
const NoLatency float64 = -1

// Record is one immutable probe outcome. MonitorID and Timestamp (epoch ms)
// identify it.
type Record struct {
	ID        uuid.UUID          `json:"id"`
	MonitorID string             `json:"monitorId"`
	Timestamp int64              `json:"timestamp"`
	Status    Status             `json:"status"`
	Latency   float64            `json:"latency"`
	Attempts  int                `json:"attempts"`
	Response  *executor.Result   `json:"response,omitempty"`
	Checks    []condition.Result `json:"checks"`
	Monitor   monitor.Monitor    `json:"monitor"`
}

// Ref identifies a record from other entities (alert invocation triggers).
type Ref struct {
	ID        uuid.UUID `json:"id"`
	Timestamp int64     `json:"timestamp"`
}

func (r *Record) Ref() Ref {
	return Ref{ID: r.ID, Timestamp: r.Timestamp}
}

// NewRecord builds the record to persist. The probe result is copied and its
// body truncated on the copy; the caller's result is left as is.
func NewRecord(m monitor.Monitor, at time.Time, st Status, latency float64, attempts int, result *executor.Result, checks []condition.Result) Record {
	rec := Record{
		ID:        uuid.New(),
		MonitorID: m.ID,
		Timestamp: at.UnixMilli(),
		Status:    st,
		Latency:   latency,
		Attempts:  attempts,
		Checks:    append([]condition.Result(nil), checks...),
		Monitor:   m,
	}
	if rec.Checks == nil {
		rec.Checks = []condition.Result{}
	}

	if result != nil {
		cp := *result
		if cp.Response.Body != nil {
			body := TruncateBody(*cp.Response.Body)
			cp.Response.Body = &body
		}
		rec.Response = &cp
	}
	return rec
}

func TruncateBody(body string) string {
	if utf8.RuneCountInString(body) <= MaxBodyLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:MaxBodyLength])
}

// StatusCode returns the probe status code, or 0 for records without a probe.
func (r *Record) StatusCode() int {
	if r.Response == nil {
		return 0
	}
	return r.Response.Response.StatusCode
}
