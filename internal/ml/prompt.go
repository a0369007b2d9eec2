package ml

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/franckalain/ecoscan/internal/models"
)

const analysisPrompt = `Analyze the image provided and return a JSON object with the following keys:

- object_name: the name of the primary object in the image.
- material: the most likely material of the object, chosen from this list:
  - Plastic: water bottles, soda bottles, detergent bottles, shopping bags, trash bags, food containers, disposable cutlery, straws, cup lids
  - Paper and Cardboard: newspaper, office paper, magazines, cardboard boxes, cardboard packaging
  - Glass: beverage bottles, food jars, cosmetic containers
  - Metal: aluminum soda cans, aluminum food cans, steel food cans, aerosol cans
  - Organic Waste: food waste (fruit peels, vegetable scraps), eggshells, coffee grounds, tea bags
  - Textiles: clothing, shoes, linens, upholstery, fabric scraps
  - E-Waste: old phones, batteries, chargers, cables, small electronics
- estimated_weight_g: a reasonable estimation of the object's weight in grams.
- carbonFootprint: estimated carbon emissions in grams CO2e for the object and the estimated weight.
- altName: a sustainable alternative material or product, specify the material name as well.
- altDescription: one sentence explaining why the alternative is better.

If the image does not show an identifiable object, return {"error": "<reason>"} instead.
Return ONLY the JSON object. Do NOT include markdown formatting, explanation, or commentary.`

// ResponseError is returned when the model answers with something that is not the
// expected JSON object.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("model response was not valid JSON: %v", e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }

// RefusalError carries the model's own explanation for not producing a result.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string { return e.Reason }

// ParseResponse normalises a model answer into an AnalysisResult. Markdown code
// fences around the JSON are tolerated.
func ParseResponse(text string) (*models.AnalysisResult, error) {
	cleaned := stripFences(text)

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, &ResponseError{Raw: text, Err: err}
	}
	if envelope.Error != "" {
		return nil, &RefusalError{Reason: envelope.Error}
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ResponseError{Raw: text, Err: err}
	}
	if result.FootprintUnit == "" {
		result.FootprintUnit = models.UnitGramsCO2
	}
	return &result, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
