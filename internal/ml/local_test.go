package ml

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/footprint"
	"github.com/franckalain/ecoscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed values.
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (r *scriptedRand) Intn(n int) int {
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func TestDetectorScriptedSequence(t *testing.T) {
	// count=2; first pick index 1 (metal); then index 0 of the remaining tail
	rng := &scriptedRand{
		ints:   []int{1, 1, 0},
		floats: []float64{0.75, 0.5, 0, 0},
	}
	d := NewDetector(catalog.Default(), rng)

	got := d.Detect(nil)
	require.Len(t, got, 2)
	assert.Equal(t, "metal", got[0].Material)
	assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)
	assert.InDelta(t, 0.6, got[0].Quantity, 1e-9)
	// after the swap ids[1] is "plastic"
	assert.Equal(t, "plastic", got[1].Material)
	assert.InDelta(t, 0.6, got[1].Confidence, 1e-9)
	assert.InDelta(t, 0.2, got[1].Quantity, 1e-9)
}

func TestDetectorRangesAndDistinctness(t *testing.T) {
	d := NewDetector(catalog.Default(), rand.New(rand.NewSource(42)))

	for i := 0; i < 500; i++ {
		got := d.Detect(nil)
		require.GreaterOrEqual(t, len(got), 1)
		require.LessOrEqual(t, len(got), 3)

		seen := map[string]bool{}
		for _, det := range got {
			_, ok := catalog.Default().Material(det.Material)
			assert.True(t, ok, det.Material)
			assert.False(t, seen[det.Material], "duplicate %s", det.Material)
			seen[det.Material] = true

			assert.GreaterOrEqual(t, det.Confidence, 0.6)
			assert.Less(t, det.Confidence, 1.0)
			assert.GreaterOrEqual(t, det.Quantity, 0.2)
			assert.Less(t, det.Quantity, 1.0)
		}
	}
}

func TestDetectorSeededIsReproducible(t *testing.T) {
	a := NewDetector(catalog.Default(), rand.New(rand.NewSource(7)))
	b := NewDetector(catalog.Default(), rand.New(rand.NewSource(7)))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Detect(nil), b.Detect(nil))
	}
}

func TestLocalModelProcessImage(t *testing.T) {
	// one material: plastic, confidence 0.8, quantity 0.2+0.0*0.8
	rng := &scriptedRand{ints: []int{0, 0}, floats: []float64{0.5, 0}}
	m := NewLocalModel(catalog.Default(), rng)
	require.NoError(t, m.Load(context.Background()))

	res, err := m.ProcessImage(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Plastic item", res.ObjectName)
	assert.Equal(t, "Plastic", res.Material)
	assert.Equal(t, 0.7, res.CarbonFootprint.Float())
	assert.Equal(t, models.UnitKilogramsCO2, res.FootprintUnit)
	assert.Equal(t, 200.0, res.EstimatedWeight.Float())
	assert.Equal(t, "Bamboo Products", res.AltName)
	require.NotNil(t, res.Footprint)
	assert.Equal(t, 0.7, res.Footprint.TotalCarbon)
	require.Len(t, res.Materials, 1)
}

func TestLocalModelSurfacesConsistencyError(t *testing.T) {
	// detector and calculator disagree on the catalog
	detCatalog := catalog.New([]models.MaterialEntry{{ID: "ghost", EmissionFactor: 1}}, nil)
	m := &LocalModel{
		catalog:  catalog.Default(),
		detector: NewDetector(detCatalog, rand.New(rand.NewSource(1))),
	}

	_, err := m.ProcessImage(context.Background(), nil, "image/png")
	var cerr *footprint.ConsistencyError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "ghost", cerr.MaterialID)
}

func TestLocalModelHonoursCancelledContext(t *testing.T) {
	m := NewLocalModel(catalog.Default(), rand.New(rand.NewSource(1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.ProcessImage(ctx, nil, "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(Config{Type: "local", Local: LocalConfig{Seed: 3}})
	require.NoError(t, err)
	assert.IsType(t, &LocalModel{}, m)

	_, err = NewModel(Config{Type: "quantum"})
	assert.Error(t, err)

	t.Setenv("GEMINI_API_KEY", "")
	_, err = NewModel(Config{Type: "gemini"})
	assert.Error(t, err)
}
