package executor

// Request describes one probe as configured on a monitor.
type Request struct {
	URL             string
	Method          string
	Headers         map[string]string
	Body            string
	FollowRedirects bool
}

type Options struct {
	FollowRedirects bool   `json:"followRedirects"`
	MaxRedirects    int    `json:"maxRedirects"`
	TimeoutMs       int64  `json:"timeoutMs"`
	Retries         int    `json:"retries"`
	UserAgent       string `json:"userAgent"`
}

// SentRequest is the request that actually went out on the wire.
type SentRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
	Options Options           `json:"options"`
}

// Timings are phase durations in milliseconds. Start is epoch ms.
type Timings struct {
	Start     int64   `json:"start"`
	Wait      float64 `json:"wait"`
	DNS       float64 `json:"dns"`
	TCP       float64 `json:"tcp"`
	TLS       float64 `json:"tls"`
	Request   float64 `json:"request"`
	FirstByte float64 `json:"firstByte"`
	Download  float64 `json:"download"`
	Total     float64 `json:"total"`
}

type Response struct {
	StatusCode    int               `json:"statusCode"`
	StatusMessage string            `json:"statusMessage"`
	Headers       map[string]string `json:"headers"`
	Body          *string           `json:"body,omitempty"`
	URL           string            `json:"url"`
	RedirectURLs  []string          `json:"redirectUrls"`
	Timings       Timings           `json:"timings"`
	RetryCount    int               `json:"retryCount"`
	Complete      bool              `json:"complete"`
	Aborted       bool              `json:"aborted"`
	Error         string            `json:"error,omitempty"`
}

// Latency returns the total request time, or false when no response arrived.
func (r *Response) Latency() (float64, bool) {
	if r.Aborted || r.StatusCode < 0 {
		return 0, false
	}
	return r.Timings.Total, true
}

// Result pairs the outbound request with what came back.
type Result struct {
	Request  SentRequest `json:"request"`
	Response Response    `json:"response"`
}
