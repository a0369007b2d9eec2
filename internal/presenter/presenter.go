// Package presenter maps analysis results to display data.
package presenter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/footprint"
	"github.com/franckalain/ecoscan/internal/models"
)

// Defaults used when a result leaves a field out
const (
	Unknown               = "Unknown"
	DefaultAltName        = "Eco-Friendly Option"
	DefaultAltDescription = "AI-recommended sustainable alternative based on analysis"
)

// MaterialView is one detected material card
type MaterialView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Quantity    float64 `json:"quantity_kg"`
	Confidence  int     `json:"confidence_pct"`
	TotalCarbon float64 `json:"total_carbon_kg"`
}

// AlternativeView is one suggested substitute card
type AlternativeView struct {
	Material    string   `json:"material"`
	Name        string   `json:"name"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	Savings     string   `json:"carbon_savings"`
	Examples    string   `json:"examples"`
}

// ViewModel is everything a result screen shows
type ViewModel struct {
	ObjectName     string            `json:"object_name"`
	Material       string            `json:"material"`
	WeightGrams    float64           `json:"weight_g"`
	WeightText     string            `json:"weight_text"`
	Footprint      float64           `json:"footprint"`
	FootprintUnit  string            `json:"footprint_unit"`
	FootprintText  string            `json:"footprint_text"`
	AltName        string            `json:"alt_name"`
	AltDescription string            `json:"alt_description"`
	Materials      []MaterialView    `json:"materials,omitempty"`
	Alternatives   []AlternativeView `json:"alternatives,omitempty"`
}

// Presenter resolves catalog data for results from the local detector
type Presenter struct {
	catalog *catalog.Catalog
}

// New creates a presenter over c
func New(c *catalog.Catalog) *Presenter {
	return &Presenter{catalog: c}
}

var defaultPresenter = New(catalog.Default())

// Present maps r using the built-in catalog
func Present(r *models.AnalysisResult) ViewModel {
	return defaultPresenter.Present(r)
}

// ShareText renders r for sharing using the built-in catalog
func ShareText(r *models.AnalysisResult) string {
	return defaultPresenter.ShareText(r)
}

// Present maps r to a ViewModel. A nil result yields all defaults.
func (p *Presenter) Present(r *models.AnalysisResult) ViewModel {
	if r == nil {
		r = &models.AnalysisResult{}
	}

	vm := ViewModel{
		ObjectName:     orDefault(r.ObjectName, Unknown),
		Material:       orDefault(r.Material, Unknown),
		WeightGrams:    r.EstimatedWeight.Float(),
		Footprint:      r.CarbonFootprint.Float(),
		FootprintUnit:  orDefault(r.FootprintUnit, models.UnitGramsCO2),
		AltName:        orDefault(r.AltName, DefaultAltName),
		AltDescription: orDefault(r.AltDescription, DefaultAltDescription),
	}
	vm.WeightText = formatNumber(vm.WeightGrams) + " g"
	vm.FootprintText = formatNumber(vm.Footprint) + " " + vm.FootprintUnit

	if r.Footprint != nil {
		for _, line := range r.Footprint.Breakdown {
			mv := MaterialView{
				ID:          line.Material,
				Name:        line.Name,
				Quantity:    footprint.Round2(line.Quantity),
				Confidence:  int(math.Round(line.Confidence * 100)),
				TotalCarbon: footprint.Round2(line.TotalCarbon),
			}
			if entry, ok := p.catalog.Material(line.Material); ok {
				mv.Icon = entry.Icon
			}
			vm.Materials = append(vm.Materials, mv)
		}
	}

	seen := make(map[string]bool)
	for _, d := range r.Materials {
		if seen[d.Material] {
			continue
		}
		seen[d.Material] = true
		for _, alt := range p.catalog.Alternatives(d.Material) {
			vm.Alternatives = append(vm.Alternatives, AlternativeView{
				Material:    alt.MaterialID,
				Name:        alt.Name,
				Icon:        alt.Icon,
				Description: alt.Description,
				Benefits:    alt.Benefits,
				Savings:     alt.Savings,
				Examples:    alt.Examples,
			})
		}
	}
	return vm
}

// ShareText renders a short human readable summary of r
func (p *Presenter) ShareText(r *models.AnalysisResult) string {
	vm := p.Present(r)

	var b strings.Builder
	fmt.Fprintf(&b, "I just analyzed %q with EcoScan! 📸🌱\n", vm.ObjectName)
	if len(vm.Materials) > 0 {
		names := make([]string, 0, len(vm.Materials))
		for _, m := range vm.Materials {
			names = append(names, m.Name)
		}
		fmt.Fprintf(&b, "Detected materials: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Carbon footprint: %s\n", vm.FootprintText)
	fmt.Fprintf(&b, "AI recommendation: %s\n", vm.AltName)
	b.WriteString("Check out EcoScan to calculate your own carbon footprint from photos!")
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Default returns the presenter over the built-in catalog
func Default() *Presenter {
	return defaultPresenter
}
