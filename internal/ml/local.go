package ml

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/footprint"
	"github.com/franckalain/ecoscan/internal/models"
)

// Rand is the random source used by the Detector. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Detector is a stand-in for a real classifier. It picks 1 to 3 distinct catalog
// materials with a confidence in [0.6, 1.0) and a quantity in [0.2, 1.0) kg.
type Detector struct {
	catalog *catalog.Catalog

	mu  sync.Mutex
	rng Rand
}

// NewDetector creates a detector drawing from rng
func NewDetector(c *catalog.Catalog, rng Rand) *Detector {
	return &Detector{catalog: c, rng: rng}
}

// Detect ignores the image content.
func (d *Detector) Detect(_ []byte) []models.DetectedMaterial {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := d.catalog.IDs()
	if len(ids) == 0 {
		return nil
	}
	count := d.rng.Intn(3) + 1
	if count > len(ids) {
		count = len(ids)
	}

	detections := make([]models.DetectedMaterial, 0, count)
	for i := 0; i < count; i++ {
		// partial Fisher-Yates: ids[:i] already drawn
		j := i + d.rng.Intn(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]

		detections = append(detections, models.DetectedMaterial{
			Material:   ids[i],
			Confidence: 0.6 + d.rng.Float64()*0.4,
			Quantity:   0.2 + d.rng.Float64()*0.8,
		})
	}
	return detections
}

// LocalModel runs the Detector and the footprint calculator in process
type LocalModel struct {
	catalog  *catalog.Catalog
	detector *Detector
}

// LocalModelFactory implements ModelFactory for local models
type LocalModelFactory struct {
	config LocalConfig
}

// NewLocalModelFactory creates a new local model factory
func NewLocalModelFactory(config LocalConfig) *LocalModelFactory {
	return &LocalModelFactory{config: config}
}

// CreateModel creates a new local model instance
func (f *LocalModelFactory) CreateModel() (Model, error) {
	seed := f.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewLocalModel(catalog.Default(), rand.New(rand.NewSource(seed))), nil
}

// NewLocalModel builds a local model over c, drawing detections from rng
func NewLocalModel(c *catalog.Catalog, rng Rand) *LocalModel {
	return &LocalModel{
		catalog:  c,
		detector: NewDetector(c, rng),
	}
}

// Load is a no-op for the local model
func (m *LocalModel) Load(ctx context.Context) error {
	return nil
}

// ProcessImage detects materials and computes their footprint. The footprint is in kg CO2e.
func (m *LocalModel) ProcessImage(ctx context.Context, imageData []byte, mimeType string) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detections := m.detector.Detect(imageData)
	breakdown, err := footprint.Compute(m.catalog, detections)
	if err != nil {
		return nil, fmt.Errorf("local model: %w", err)
	}

	result := &models.AnalysisResult{
		CarbonFootprint: models.NewNumber(breakdown.TotalCarbon),
		FootprintUnit:   models.UnitKilogramsCO2,
		Materials:       detections,
		Footprint:       breakdown,
	}

	names := make([]string, 0, len(breakdown.Breakdown))
	var grams float64
	for _, line := range breakdown.Breakdown {
		names = append(names, line.Name)
		grams += line.Quantity * 1000
	}
	result.Material = strings.Join(names, ", ")
	result.EstimatedWeight = models.NewNumber(footprint.Round2(grams))
	if len(names) == 1 {
		result.ObjectName = names[0] + " item"
	} else {
		result.ObjectName = "Mixed-material item"
	}

	if len(detections) > 0 {
		if alts := m.catalog.Alternatives(detections[0].Material); len(alts) > 0 {
			result.AltName = alts[0].Name
			result.AltDescription = alts[0].Description
		}
	}
	return result, nil
}
