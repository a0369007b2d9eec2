package models

// MaterialEntry describes one material known to the catalog
type MaterialEntry struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon"`
	EmissionFactor float64 `json:"emission_factor"` // kg CO2e per kg of material
	Description    string  `json:"description"`
}

// AlternativeEntry is an eco-friendly substitute for a material
type AlternativeEntry struct {
	MaterialID  string   `json:"material_id"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	Savings     string   `json:"carbon_savings"` // e.g. "85% less CO2"
	Examples    string   `json:"examples"`
}

// DetectedMaterial is a single (material, quantity, confidence) detection
type DetectedMaterial struct {
	Material   string  `json:"material"`
	Quantity   float64 `json:"quantity"`   // kg
	Confidence float64 `json:"confidence"` // 0..1
}

// MaterialFootprint is one line of a FootprintBreakdown
type MaterialFootprint struct {
	Material       string  `json:"material"`
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	Confidence     float64 `json:"confidence"`
	EmissionFactor float64 `json:"carbonFootprint"`
	TotalCarbon    float64 `json:"totalCarbon"`
}

// FootprintBreakdown is the aggregated footprint of one set of detections
type FootprintBreakdown struct {
	TotalCarbon float64             `json:"totalCarbon"` // kg CO2e, rounded to 2 decimals
	Breakdown   []MaterialFootprint `json:"breakdown"`
}
