// Package condition decides whether a probe response counts as "up".
//
// A check is one of four variants (latency, code, json_body, html_body). Each
// variant only accepts the comparisons that make sense for it; the
// constructors reject anything else. Configuration arrives as a Spec and is
// compiled with Spec.Check, which never fails: a spec that cannot be turned
// into a valid check becomes an InvalidCheck that always evaluates as failed.
package condition

import (
	"komonitor/internals/modules/executor"
)

type Type string

const (
	TypeLatency  Type = "latency"
	TypeCode     Type = "code"
	TypeJSONBody Type = "json_body"
	TypeHTMLBody Type = "html_body"
)

type Comparison string

const (
	Equal          Comparison = "equal"
	NotEqual       Comparison = "not_equal"
	Greater        Comparison = "greater"
	Less           Comparison = "less"
	GreaterOrEqual Comparison = "greater_or_equal"
	LessOrEqual    Comparison = "less_or_equal"
	Null           Comparison = "null"
	NotNull        Comparison = "not_null"
	Empty          Comparison = "empty"
	NotEmpty       Comparison = "not_empty"
	Contains       Comparison = "contains"
	NotContains    Comparison = "not_contains"
)

var (
	numericComparisons = comparisonSet(Equal, NotEqual, Greater, Less, GreaterOrEqual, LessOrEqual)
	jsonComparisons    = comparisonSet(Equal, NotEqual, Greater, Less, GreaterOrEqual, LessOrEqual, Null, NotNull, Empty, NotEmpty, Contains, NotContains)
	textComparisons    = comparisonSet(Contains, NotContains)
)

func comparisonSet(cmps ...Comparison) map[Comparison]struct{} {
	set := make(map[Comparison]struct{}, len(cmps))
	for _, c := range cmps {
		set[c] = struct{}{}
	}
	return set
}

// Phase names a timing phase of the probe.
type Phase string

const (
	PhaseTotal     Phase = "total"
	PhaseFirstByte Phase = "firstByte"
	PhaseDNS       Phase = "dns"
	PhaseTCP       Phase = "tcp"
	PhaseTLS       Phase = "tls"
	PhaseWait      Phase = "wait"
	PhaseDownload  Phase = "download"
	PhaseRequest   Phase = "request"
)

func (p Phase) value(t executor.Timings) (float64, bool) {
	switch p {
	case PhaseTotal:
		return t.Total, true
	case PhaseFirstByte:
		return t.FirstByte, true
	case PhaseDNS:
		return t.DNS, true
	case PhaseTCP:
		return t.TCP, true
	case PhaseTLS:
		return t.TLS, true
	case PhaseWait:
		return t.Wait, true
	case PhaseDownload:
		return t.Download, true
	case PhaseRequest:
		return t.Request, true
	}
	return 0, false
}

// Condition is the wire form of a check's predicate. Property holds the JSON
// path for json_body checks and the timing phase for latency checks.
type Condition struct {
	Property   string     `json:"property,omitempty"`
	Comparison Comparison `json:"comparison"`
	Expected   any        `json:"expected,omitempty"`
}

// Spec is a check as stored on a monitor.
type Spec struct {
	Type      Type      `json:"type"`
	Condition Condition `json:"condition"`
}

// Result is the outcome of one check.
type Result struct {
	Type     Type   `json:"type"`
	Passed   bool   `json:"passed"`
	Observed any    `json:"observed,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Check is implemented only by the variants in this package.
type Check interface {
	Type() Type
	Evaluate(resp *executor.Response) Result
	sealed()
}
