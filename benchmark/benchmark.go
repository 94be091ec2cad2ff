// Package benchmark couples reference pricing scenarios with externally
// sourced values, so grid changes can be checked against closed forms and
// Monte Carlo in one run.
package benchmark

import (
	"fmt"
	"io"
	"math"
)

// Case is one reference scenario: a pricing function and the value it must
// reproduce within tolerance.
type Case struct {
	Name      string
	Reference float64
	Tolerance float64
	Value     func() (float64, error)
}

// Result is the outcome of one case.
type Result struct {
	Name      string
	Value     float64
	Reference float64
	Error     float64
	Pass      bool
}

// Run executes every case and writes a report table. It returns an error when
// any case fails or errors.
func Run(w io.Writer, cases []Case) error {
	fmt.Fprintf(w, "%-42s %12s %12s %10s %s\n", "case", "value", "reference", "error", "status")
	failed := 0
	for _, c := range cases {
		v, err := c.Value()
		if err != nil {
			failed++
			fmt.Fprintf(w, "%-42s %12s %12.6f %10s ERROR: %v\n", c.Name, "-", c.Reference, "-", err)
			continue
		}
		res := Result{
			Name:      c.Name,
			Value:     v,
			Reference: c.Reference,
			Error:     math.Abs(v - c.Reference),
		}
		res.Pass = res.Error <= c.Tolerance
		status := "ok"
		if !res.Pass {
			failed++
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-42s %12.6f %12.6f %10.2e %s\n", res.Name, res.Value, res.Reference, res.Error, status)
	}
	if failed > 0 {
		return fmt.Errorf("benchmark: %d of %d cases failed", failed, len(cases))
	}
	return nil
}
