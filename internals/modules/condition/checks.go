package condition

import (
	"fmt"
	"strings"

	"komonitor/internals/modules/executor"

	"github.com/tidwall/gjson"
)

type CodeCheck struct {
	Comparison Comparison
	Expected   int
}

func NewCodeCheck(cmp Comparison, expected int) (CodeCheck, error) {
	if _, ok := numericComparisons[cmp]; !ok {
		return CodeCheck{}, fmt.Errorf("comparison %q not supported for %s", cmp, TypeCode)
	}
	return CodeCheck{Comparison: cmp, Expected: expected}, nil
}

// DefaultCheck is applied when a monitor has no checks configured.
func DefaultCheck() Check {
	return CodeCheck{Comparison: Equal, Expected: 200}
}

func (c CodeCheck) Type() Type { return TypeCode }
func (CodeCheck) sealed()      {}

func (c CodeCheck) Evaluate(resp *executor.Response) Result {
	return Result{
		Type:     TypeCode,
		Passed:   compareNumbers(c.Comparison, float64(resp.StatusCode), float64(c.Expected)),
		Observed: resp.StatusCode,
	}
}

type LatencyCheck struct {
	Phase      Phase
	Comparison Comparison
	Expected   float64
}

func NewLatencyCheck(phase Phase, cmp Comparison, expected float64) (LatencyCheck, error) {
	if _, ok := phase.value(executor.Timings{}); !ok {
		return LatencyCheck{}, fmt.Errorf("unknown latency phase %q", phase)
	}
	if _, ok := numericComparisons[cmp]; !ok {
		return LatencyCheck{}, fmt.Errorf("comparison %q not supported for %s", cmp, TypeLatency)
	}
	return LatencyCheck{Phase: phase, Comparison: cmp, Expected: expected}, nil
}

func (c LatencyCheck) Type() Type { return TypeLatency }
func (LatencyCheck) sealed()      {}

func (c LatencyCheck) Evaluate(resp *executor.Response) Result {
	if resp.Aborted {
		return Result{Type: TypeLatency, Reason: "no response"}
	}
	v, _ := c.Phase.value(resp.Timings)
	return Result{
		Type:     TypeLatency,
		Passed:   compareNumbers(c.Comparison, v, c.Expected),
		Observed: v,
	}
}

type JSONBodyCheck struct {
	Property   string
	Comparison Comparison
	Expected   any
}

func NewJSONBodyCheck(property string, cmp Comparison, expected any) (JSONBodyCheck, error) {
	path := normalizePath(property)
	if path == "" {
		return JSONBodyCheck{}, fmt.Errorf("%s check requires a property", TypeJSONBody)
	}
	if _, ok := jsonComparisons[cmp]; !ok {
		return JSONBodyCheck{}, fmt.Errorf("comparison %q not supported for %s", cmp, TypeJSONBody)
	}
	return JSONBodyCheck{Property: path, Comparison: cmp, Expected: expected}, nil
}

func (c JSONBodyCheck) Type() Type { return TypeJSONBody }
func (JSONBodyCheck) sealed()      {}

func (c JSONBodyCheck) Evaluate(resp *executor.Response) Result {
	res := Result{Type: TypeJSONBody}
	if resp.Body == nil {
		res.Reason = "no body"
		return res
	}
	if !gjson.Valid(*resp.Body) {
		res.Reason = "body is not valid json"
		return res
	}
	value := gjson.Get(*resp.Body, c.Property)
	if !value.Exists() {
		res.Reason = "property not found"
		return res
	}

	res.Observed = value.Value()
	res.Passed = compareJSON(c.Comparison, value, c.Expected)
	return res
}

type HTMLBodyCheck struct {
	Comparison Comparison
	Expected   string
}

func NewHTMLBodyCheck(cmp Comparison, expected string) (HTMLBodyCheck, error) {
	if _, ok := textComparisons[cmp]; !ok {
		return HTMLBodyCheck{}, fmt.Errorf("comparison %q not supported for %s", cmp, TypeHTMLBody)
	}
	return HTMLBodyCheck{Comparison: cmp, Expected: expected}, nil
}

func (c HTMLBodyCheck) Type() Type { return TypeHTMLBody }
func (HTMLBodyCheck) sealed()      {}

func (c HTMLBodyCheck) Evaluate(resp *executor.Response) Result {
	if resp.Body == nil {
		return Result{Type: TypeHTMLBody, Reason: "no body"}
	}
	found := strings.Contains(*resp.Body, c.Expected)
	passed := found
	if c.Comparison == NotContains {
		passed = !found
	}
	return Result{Type: TypeHTMLBody, Passed: passed, Observed: found}
}

// InvalidCheck stands in for a spec that could not be compiled.
type InvalidCheck struct {
	Declared Type
	Reason   string
}

func (c InvalidCheck) Type() Type { return c.Declared }
func (InvalidCheck) sealed()      {}

func (c InvalidCheck) Evaluate(*executor.Response) Result {
	return Result{Type: c.Declared, Passed: false, Reason: c.Reason}
}

func normalizePath(property string) string {
	p := strings.TrimSpace(property)
	p = strings.TrimPrefix(p, "$")
	return strings.TrimPrefix(p, ".")
}
