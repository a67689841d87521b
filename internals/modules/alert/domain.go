package alert

type Type string

const (
	IncidentStart Type = "incident_start"
	IncidentEnd   Type = "incident_end"
)

const MonitorTypeUptime = "uptime-monitor"

// Trigger is the message handed to alert handling when an incident starts or ends.
type Trigger struct {
	MonitorID   string `json:"monitorId"`
	OwnerID     string `json:"ownerId"`
	MonitorType string `json:"monitorType"`
	AlertType   Type   `json:"alertType"`
}

func NewTrigger(monitorID, ownerID string, t Type) Trigger {
	return Trigger{
		MonitorID:   monitorID,
		OwnerID:     ownerID,
		MonitorType: MonitorTypeUptime,
		AlertType:   t,
	}
}
