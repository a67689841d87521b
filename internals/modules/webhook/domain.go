package webhook

import "time"

const (
	HookTypeStatus = "uptime-monitor-status"

	HeaderRequestID = "request-id"
	HeaderHookType  = "komonitor-hook-type"
	HeaderTimestamp = "komonitor-hook-timestamp"
	HeaderSignature = "komonitor-hook-signature"
)

// Secret is an owner's webhook signing key.
type Secret struct {
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// Envelope is the body of every webhook POST.
type Envelope struct {
	Type string         `json:"type"`
	Data ExternalStatus `json:"data"`
}
