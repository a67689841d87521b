package incident

import (
	"komonitor/internals/modules/monitor"
	"komonitor/internals/modules/status"
)

// Invocation is the alert record of one incident. It is the only record the
// pipeline updates in place: Ongoing flips to false on resolution.
type Invocation struct {
	MonitorID string              `json:"monitorId"`
	Timestamp int64               `json:"timestamp"`
	Alert     monitor.AlertConfig `json:"alert"`
	Ongoing   bool                `json:"ongoing"`
	Triggers  []status.Ref        `json:"triggers"`
}
