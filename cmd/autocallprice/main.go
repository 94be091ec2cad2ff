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

	"github.com/meenmo/derivlib/calendar"
	"github.com/meenmo/derivlib/fd"
	"github.com/meenmo/derivlib/instruments/notes"
	"github.com/meenmo/derivlib/utils"
)

// PricingInput defines the JSON input schema for structured note pricing.
type PricingInput struct {
	TaskID string `json:"task_id,omitempty"`

	// Instrument is AUTOCALLABLE or ACCUMULATOR.
	Instrument string `json:"instrument"`

	// Autocallable terms. Rates are decimals per annum; observation_dates may
	// be omitted to generate quarterly modified-following dates on the given
	// calendar (default TARGET).
	InitialPrice      float64  `json:"initial_price,omitempty"`
	KnockOutPrice     float64  `json:"knock_out_price,omitempty"`
	KnockInPrice      float64  `json:"knock_in_price,omitempty"`
	CouponRate        float64  `json:"coupon_rate,omitempty"`
	MinimalCouponRate float64  `json:"minimal_coupon_rate,omitempty"`
	ObservationDates  []string `json:"observation_dates,omitempty"`
	Calendar          string   `json:"calendar,omitempty"`
	// KnockInObservationInterval is the year fraction between knock-in
	// observations; zero means every grid step.
	KnockInObservationInterval float64 `json:"knock_in_observation_interval,omitempty"`

	// Accumulator terms.
	StrikePrice         float64 `json:"strike_price,omitempty"`
	Acceleration        float64 `json:"acceleration,omitempty"`
	ObservationInterval float64 `json:"observation_interval,omitempty"`

	EffectiveDate  string `json:"effective_date"`
	ExpirationDate string `json:"expiration_date"`
	ValuationDate  string `json:"valuation_date"`

	Spot          float64 `json:"spot"`
	Volatility    float64 `json:"volatility"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	DividendYield float64 `json:"dividend_yield,omitempty"`

	Scheme     string `json:"scheme,omitempty"`
	PriceSteps int    `json:"price_steps,omitempty"`
	TimeSteps  int    `json:"time_steps,omitempty"`
}

// PricingOutput defines the JSON output schema.
type PricingOutput struct {
	TaskID           string   `json:"task_id,omitempty"`
	Value            float64  `json:"value"`
	Scheme           string   `json:"scheme,omitempty"`
	ObservationDates []string `json:"observation_dates,omitempty"`
	Error            string   `json:"error,omitempty"`
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
	fmt.Println("  autocallprice < input.json")
	fmt.Println("  autocallprice -input /path/to/input.json")
	fmt.Println()
	fmt.Println("Read JSON input, price the structured note on a finite-difference grid, output JSON to stdout.")
	fmt.Println()
	fmt.Println("Example input:")
	fmt.Println(`  {`)
	fmt.Println(`    "instrument": "AUTOCALLABLE",`)
	fmt.Println(`    "initial_price": 100,`)
	fmt.Println(`    "knock_out_price": 100,`)
	fmt.Println(`    "knock_in_price": 60,`)
	fmt.Println(`    "coupon_rate": 0.0845,`)
	fmt.Println(`    "minimal_coupon_rate": 0.02,`)
	fmt.Println(`    "effective_date": "2025-01-01",`)
	fmt.Println(`    "expiration_date": "2026-01-01",`)
	fmt.Println(`    "valuation_date": "2025-04-02",`)
	fmt.Println(`    "spot": 98,`)
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
	effective, err := time.Parse("2006-01-02", input.EffectiveDate)
	if err != nil {
		return nil, fmt.Errorf("invalid effective_date: %v", err)
	}
	expiration, err := time.Parse("2006-01-02", input.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiration_date: %v", err)
	}
	valuation, err := time.Parse("2006-01-02", input.ValuationDate)
	if err != nil {
		return nil, fmt.Errorf("invalid valuation_date: %v", err)
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

	var cond fd.ConditionPolicy
	var obsDates []time.Time
	switch strings.ToUpper(input.Instrument) {
	case "AUTOCALLABLE":
		obsDates, err = observationDates(input, effective, expiration)
		if err != nil {
			return nil, err
		}
		cond, err = fd.NewAutocallableCondition(notes.Autocallable{
			InitialPrice:               input.InitialPrice,
			KnockOutPrice:              input.KnockOutPrice,
			KnockInPrice:               input.KnockInPrice,
			CouponRate:                 input.CouponRate,
			MinimalCouponRate:          input.MinimalCouponRate,
			EffectiveDate:              effective,
			ExpirationDate:             expiration,
			ObservationDates:           obsDates,
			KnockInObservationInterval: input.KnockInObservationInterval,
		})
	case "ACCUMULATOR":
		cond, err = fd.NewAccumulatorCondition(notes.Accumulator{
			StrikePrice:         input.StrikePrice,
			KnockOutPrice:       input.KnockOutPrice,
			Acceleration:        input.Acceleration,
			ObservationInterval: input.ObservationInterval,
			EffectiveDate:       effective,
			ExpirationDate:      expiration,
		})
	default:
		return nil, fmt.Errorf("unknown instrument: %s (must be AUTOCALLABLE or ACCUMULATOR)", input.Instrument)
	}
	if err != nil {
		return nil, err
	}

	engine, err := fd.NewEngine(scheme, priceSteps, timeSteps)
	if err != nil {
		return nil, err
	}
	value, err := engine.Value(cond, fd.Valuation{
		Date: valuation,
		Spot: input.Spot,
		Model: fd.Model{
			Volatility:    input.Volatility,
			RiskFreeRate:  input.RiskFreeRate,
			DividendYield: input.DividendYield,
		},
	})
	if err != nil {
		return nil, err
	}

	out := &PricingOutput{
		TaskID: input.TaskID,
		Value:  value,
		Scheme: scheme.String(),
	}
	for _, d := range obsDates {
		out.ObservationDates = append(out.ObservationDates, d.Format("2006-01-02"))
	}
	return out, nil
}

// observationDates parses explicit dates, or generates the quarterly schedule
// when none are given.
func observationDates(input PricingInput, effective, expiration time.Time) ([]time.Time, error) {
	if len(input.ObservationDates) == 0 {
		cal := calendar.CalendarID(strings.ToUpper(input.Calendar))
		if input.Calendar == "" {
			cal = calendar.TARGET
		}
		return notes.QuarterlyObservations(cal, effective, expiration), nil
	}
	dates := make([]time.Time, 0, len(input.ObservationDates))
	for _, s := range input.ObservationDates {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid observation date %q: %v", s, err)
		}
		dates = append(dates, d)
	}
	utils.SortDates(dates)
	return dates, nil
}
