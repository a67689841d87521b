package monitor

import (
	"komonitor/internals/modules/condition"
)

// Frequency is the check interval in minutes.
type Frequency int

var Frequencies = []Frequency{1, 5, 10, 15, 30, 60}

func (f Frequency) Valid() bool {
	for _, allowed := range Frequencies {
		if f == allowed {
			return true
		}
	}
	return false
}

type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSlack   Channel = "slack"
	ChannelDiscord Channel = "discord"
	ChannelWebhook Channel = "webhook"
)

// AlertConfig is the per-monitor alerting setup. It is opaque to this
// service: it is snapshotted onto invocations and forwarded, never rendered.
type AlertConfig struct {
	Channels   []Channel `json:"channels" validate:"required,min=1,dive,oneof=email slack discord webhook"`
	Recipients []string  `json:"recipients,omitempty"`
	SlackURL   string    `json:"slackUrl,omitempty" validate:"omitempty,url"`
	DiscordURL string    `json:"discordUrl,omitempty" validate:"omitempty,url"`
}

// Monitor is a user configured uptime target as delivered in a job batch.
type Monitor struct {
	ID              string            `json:"monitorId" validate:"required"`
	OwnerID         string            `json:"ownerId" validate:"required"`
	URL             string            `json:"url" validate:"required,url"`
	Method          string            `json:"method,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body,omitempty"`
	FollowRedirects bool              `json:"followRedirects"`
	Frequency       Frequency         `json:"frequency" validate:"frequency"`
	Retries         int               `json:"retries" validate:"gte=0"`
	Checks          []condition.Spec  `json:"checks,omitempty"`
	Alert           *AlertConfig      `json:"alert,omitempty"`
	WebhookURL      string            `json:"webhookUrl,omitempty" validate:"omitempty,url"`
	Paused          bool              `json:"paused,omitempty"`
}

func (m *Monitor) HasAlerts() bool {
	return m.Alert != nil && len(m.Alert.Channels) > 0
}

func (m *Monitor) HasWebhook() bool {
	return m.WebhookURL != ""
}
