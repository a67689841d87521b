package condition

import (
	"fmt"

	"komonitor/internals/modules/executor"
)

// Check compiles the spec. It never fails; invalid specs become InvalidCheck.
func (s Spec) Check() Check {
	c, err := s.compile()
	if err != nil {
		return InvalidCheck{Declared: s.Type, Reason: err.Error()}
	}
	return c
}

func (s Spec) compile() (Check, error) {
	cond := s.Condition
	switch s.Type {
	case TypeCode:
		n, ok := toFloat(cond.Expected)
		if !ok || n != float64(int(n)) {
			return nil, fmt.Errorf("%s check expects an integer status code", TypeCode)
		}
		return NewCodeCheck(cond.Comparison, int(n))

	case TypeLatency:
		n, ok := toFloat(cond.Expected)
		if !ok {
			return nil, fmt.Errorf("%s check expects a number of milliseconds", TypeLatency)
		}
		phase := Phase(cond.Property)
		if phase == "" {
			phase = PhaseTotal
		}
		return NewLatencyCheck(phase, cond.Comparison, n)

	case TypeJSONBody:
		return NewJSONBodyCheck(cond.Property, cond.Comparison, cond.Expected)

	case TypeHTMLBody:
		text, ok := cond.Expected.(string)
		if !ok {
			return nil, fmt.Errorf("%s check expects a string", TypeHTMLBody)
		}
		return NewHTMLBodyCheck(cond.Comparison, text)
	}
	return nil, fmt.Errorf("unsupported check type %q", s.Type)
}

// Compile turns specs into checks, preserving order.
func Compile(specs []Spec) []Check {
	checks := make([]Check, 0, len(specs))
	for _, s := range specs {
		checks = append(checks, s.Check())
	}
	return checks
}

// Evaluate runs every check against resp and returns the per-check results in
// input order plus the AND of all of them. With no checks the default
// status-code-200 check is used.
func Evaluate(checks []Check, resp *executor.Response) ([]Result, bool) {
	if len(checks) == 0 {
		checks = []Check{DefaultCheck()}
	}

	results := make([]Result, len(checks))
	isUp := true
	for i, c := range checks {
		results[i] = evaluateOne(c, resp)
		if !results[i].Passed {
			isUp = false
		}
	}
	return results, isUp
}

func evaluateOne(c Check, resp *executor.Response) (res Result) {
	if c == nil {
		return Result{Reason: "nil check"}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Type: c.Type(), Reason: fmt.Sprintf("check panicked: %v", r)}
		}
	}()
	return c.Evaluate(resp)
}
