// Package footprint turns material detections into a carbon footprint.
package footprint

import (
	"fmt"
	"math"
	"sort"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/models"
)

// ConsistencyError reports a detection the catalog cannot account for. It means the
// detector and the catalog are out of sync and is never a user error.
type ConsistencyError struct {
	MaterialID string
	Reason     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("footprint: material %q: %s", e.MaterialID, e.Reason)
}

// Compute multiplies every detected quantity by its emission factor. Breakdown order
// follows the input; the total is rounded to two decimals.
func Compute(c *catalog.Catalog, detections []models.DetectedMaterial) (*models.FootprintBreakdown, error) {
	result := &models.FootprintBreakdown{
		Breakdown: make([]models.MaterialFootprint, 0, len(detections)),
	}

	contributions := make([]float64, 0, len(detections))
	for _, d := range detections {
		entry, ok := c.Material(d.Material)
		if !ok {
			return nil, &ConsistencyError{MaterialID: d.Material, Reason: "not in catalog"}
		}
		if d.Quantity <= 0 || math.IsNaN(d.Quantity) || math.IsInf(d.Quantity, 0) {
			return nil, &ConsistencyError{MaterialID: d.Material, Reason: fmt.Sprintf("invalid quantity %v", d.Quantity)}
		}
		if d.Confidence < 0 || d.Confidence > 1 || math.IsNaN(d.Confidence) {
			return nil, &ConsistencyError{MaterialID: d.Material, Reason: fmt.Sprintf("invalid confidence %v", d.Confidence)}
		}

		carbon := d.Quantity * entry.EmissionFactor
		contributions = append(contributions, carbon)
		result.Breakdown = append(result.Breakdown, models.MaterialFootprint{
			Material:       d.Material,
			Name:           entry.Name,
			Quantity:       d.Quantity,
			Confidence:     d.Confidence,
			EmissionFactor: entry.EmissionFactor,
			TotalCarbon:    carbon,
		})
	}

	// Summing in sorted order makes the total independent of input order.
	sort.Float64s(contributions)
	var total float64
	for _, v := range contributions {
		total += v
	}
	result.TotalCarbon = Round2(total)
	return result, nil
}

// Round2 rounds half up to two decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
