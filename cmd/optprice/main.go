package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/meenmo/derivlib/fd"
	"github.com/meenmo/derivlib/instruments/options"
)

// PricingInput defines the JSON input schema for finite-difference option pricing.
type PricingInput struct {
	TaskID string `json:"task_id,omitempty"`

	// Instrument is VANILLA, DIGITAL, or BARRIER.
	Instrument string  `json:"instrument"`
	Right      string  `json:"right"`
	Exercise   string  `json:"exercise,omitempty"`
	Strike     float64 `json:"strike"`
	// Payout is the cash amount of a DIGITAL.
	Payout float64 `json:"payout,omitempty"`
	// BarrierType is UP_OUT, DOWN_OUT, UP_IN, or DOWN_IN.
	BarrierType  string  `json:"barrier_type,omitempty"`
	BarrierLevel float64 `json:"barrier_level,omitempty"`
	Rebate       float64 `json:"rebate,omitempty"`
	// ObservationInterval is the year fraction between barrier observations;
	// zero or omitted means continuous monitoring.
	ObservationInterval float64 `json:"observation_interval,omitempty"`

	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date"`
	ValuationDate  string `json:"valuation_date"`

	Spot          float64 `json:"spot"`
	Volatility    float64 `json:"volatility"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield,omitempty"`

	// Scheme is ExplicitEuler, ImplicitEuler, or CrankNicolson;
	// defaults to CrankNicolson.
	Scheme     string `json:"scheme,omitempty"`
	PriceSteps int    `json:"price_steps,omitempty"`
	TimeSteps  int    `json:"time_steps,omitempty"`
}

// PricingOutput defines the JSON output schema.
type PricingOutput struct {
	TaskID       string  `json:"task_id,omitempty"`
	Value        float64 `json:"value"`
	Scheme       string  `json:"scheme,omitempty"`
	TimeToExpiry float64 `json:"time_to_expiry,omitempty"`
	Error        string  `json:"error,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (optional; if set, ignores stdin)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		usage()
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			usage()
			os.Exit(2)
		}
	}

	inputBytes, err := readInput(path)
	if err != nil {
		writeError(fmt.Sprintf("failed to read input: %v", err))
		return
	}

	inputs, isArray, err := parseInputs(inputBytes)
	if err != nil {
		writeError(fmt.Sprintf("failed to parse JSON input: %v", err))
		return
	}

	hadError := false
	outputs := make([]PricingOutput, 0, len(inputs))
	for _, in := range inputs {
		out, err := price(in)
		if err != nil {
			hadError = true
			outputs = append(outputs, PricingOutput{
				TaskID: in.TaskID,
				Error:  err.Error(),
			})
			continue
		}
		outputs = append(outputs, *out)
	}

	if isArray {
		outputBytes, _ := json.Marshal(outputs)
		fmt.Println(string(outputBytes))
	} else {
		outputBytes, _ := json.Marshal(outputs[0])
		fmt.Println(string(outputBytes))
	}

	if hadError {
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  optprice < input.json")
	fmt.Println("  optprice -input /path/to/input.json")
	fmt.Println()
	fmt.Println("Read JSON input, price the option on a finite-difference grid, output JSON to stdout.")
	fmt.Println()
	fmt.Println("Example input:")
	fmt.Println(`  {`)
	fmt.Println(`    "instrument": "VANILLA",`)
	fmt.Println(`    "right": "PUT",`)
	fmt.Println(`    "exercise": "AMERICAN",`)
	fmt.Println(`    "strike": 100,`)
	fmt.Println(`    "effective_date": "2025-01-01",`)
	fmt.Println(`    "expiration_date": "2026-01-01",`)
	fmt.Println(`    "valuation_date": "2025-06-02",`)
	fmt.Println(`    "spot": 95,`)
	fmt.Println(`    "volatility": 0.25,`)
	fmt.Println(`    "risk_free_rate": 0.03`)
	fmt.Println(`  }`)
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

func parseInputs(raw []byte) ([]PricingInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}

	if trimmed[0] == '[' {
		var inputs []PricingInput
		if err := json.Unmarshal(trimmed, &inputs); err != nil {
			return nil, true, err
		}
		if len(inputs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
		return inputs, true, nil
	}

	var input PricingInput
	if err := json.Unmarshal(trimmed, &input); err != nil {
		return nil, false, err
	}
	return []PricingInput{input}, false, nil
}

func writeError(msg string) {
	output := PricingOutput{Error: msg}
	outputBytes, _ := json.Marshal(output)
	fmt.Println(string(outputBytes))
	os.Exit(1)
}

func price(input PricingInput) (*PricingOutput, error) {
	effective, expiration, valuation, err := parseDates(input)
	if err != nil {
		return nil, err
	}

	scheme := fd.CrankNicolson
	if input.Scheme != "" {
		scheme, err = fd.ParseScheme(input.Scheme)
		if err != nil {
			return nil, err
		}
	}
	priceSteps := input.PriceSteps
	if priceSteps == 0 {
		priceSteps = 500
	}
	timeSteps := input.TimeSteps
	if timeSteps == 0 {
		timeSteps = 500
	}

	cond, err := buildCondition(input, effective, expiration)
	if err != nil {
		return nil, err
	}

	engine, err := fd.NewEngine(scheme, priceSteps, timeSteps)
	if err != nil {
		return nil, err
	}
	v := fd.Valuation{
		Date: valuation,
		Spot: input.Spot,
		Model: fd.Model{
			Volatility:    input.Volatility,
			RiskFreeRate:  input.RiskFreeRate,
			DividendYield: input.DividendYield,
		},
	}
	value, err := engine.Value(cond, v)
	if err != nil {
		return nil, err
	}

	dom, err := cond.Domain(v)
	if err != nil {
		return nil, err
	}
	return &PricingOutput{
		TaskID:       input.TaskID,
		Value:        value,
		Scheme:       scheme.String(),
		TimeToExpiry: dom.TimeToExpiry,
	}, nil
}

func parseDates(input PricingInput) (effective, expiration, valuation time.Time, err error) {
	if effective, err = time.Parse("2006-01-02", input.EffectiveDate); err != nil {
		return effective, expiration, valuation, fmt.Errorf("invalid effective_date: %v", err)
	}
	if expiration, err = time.Parse("2006-01-02", input.ExpirationDate); err != nil {
		return effective, expiration, valuation, fmt.Errorf("invalid expiration_date: %v", err)
	}
	if valuation, err = time.Parse("2006-01-02", input.ValuationDate); err != nil {
		return effective, expiration, valuation, fmt.Errorf("invalid valuation_date: %v", err)
	}
	return effective, expiration, valuation, nil
}

func buildCondition(input PricingInput, effective, expiration time.Time) (fd.ConditionPolicy, error) {
	right := options.Right(strings.ToUpper(input.Right))
	switch strings.ToUpper(input.Instrument) {
	case "VANILLA":
		exercise := options.European
		if input.Exercise != "" {
			exercise = options.Exercise(strings.ToUpper(input.Exercise))
		}
		return fd.NewVanillaCondition(options.Vanilla{
			Right:          right,
			Exercise:       exercise,
			Strike:         input.Strike,
			EffectiveDate:  effective,
			ExpirationDate: expiration,
		})
	case "DIGITAL":
		return fd.NewDigitalCondition(options.Digital{
			Right:          right,
			Strike:         input.Strike,
			Payout:         input.Payout,
			EffectiveDate:  effective,
			ExpirationDate: expiration,
		})
	case "BARRIER":
		return fd.NewBarrierCondition(options.Barrier{
			Right:               right,
			Type:                options.BarrierType(strings.ToUpper(input.BarrierType)),
			Strike:              input.Strike,
			Level:               input.BarrierLevel,
			Rebate:              input.Rebate,
			ObservationInterval: input.ObservationInterval,
			EffectiveDate:       effective,
			ExpirationDate:      expiration,
		})
	default:
		return nil, fmt.Errorf("unknown instrument: %s (must be VANILLA, DIGITAL, or BARRIER)", input.Instrument)
	}
}
