package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

const (
	// UnitGramsCO2 is the unit used by vision backends.
	UnitGramsCO2 = "g CO2e"
	// UnitKilogramsCO2 is the unit produced by the local footprint calculator.
	UnitKilogramsCO2 = "kg CO2e"
)

// Number is a JSON number that also accepts numeric strings ("120", " 4.5 ").
type Number float64

// UnmarshalJSON implements json.Unmarshaler. Numbers and numeric strings are
// accepted; empty strings and any other value read as 0 so one bad field does
// not discard the rest of a result.
func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}

	*n = 0
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*n = Number(f)
	}
	return nil
}

// Float returns the value of n, or 0 when n is nil.
func (n *Number) Float() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

// NewNumber returns a pointer to a Number holding v.
func NewNumber(v float64) *Number {
	n := Number(v)
	return &n
}

// AnalysisResult is the normalised answer of a vision backend. Every field is optional;
// the presenter fills in defaults.
type AnalysisResult struct {
	ObjectName      string  `json:"object_name,omitempty"`
	EstimatedWeight *Number `json:"estimated_weight_g,omitempty"` // grams
	CarbonFootprint *Number `json:"carbonFootprint,omitempty"`
	FootprintUnit   string  `json:"footprint_unit,omitempty"`
	Material        string  `json:"material,omitempty"`
	AltName         string  `json:"altName,omitempty"`
	AltDescription  string  `json:"altDescription,omitempty"`

	// Only set by the local detector.
	Materials []DetectedMaterial  `json:"materials,omitempty"`
	Footprint *FootprintBreakdown `json:"footprint,omitempty"`
}
