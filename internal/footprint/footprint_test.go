package footprint

import (
	"errors"
	"testing"

	"github.com/franckalain/ecoscan/internal/catalog"
	"github.com/franckalain/ecoscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSinglePlastic(t *testing.T) {
	got, err := Compute(catalog.Default(), []models.DetectedMaterial{
		{Material: "plastic", Quantity: 0.2, Confidence: 0.9},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.7, got.TotalCarbon)
	require.Len(t, got.Breakdown, 1)
	assert.Equal(t, "plastic", got.Breakdown[0].Material)
	assert.Equal(t, "Plastic", got.Breakdown[0].Name)
	assert.InDelta(t, 0.7, got.Breakdown[0].TotalCarbon, 1e-9)
}

func TestComputeMetalAndGlass(t *testing.T) {
	got, err := Compute(catalog.Default(), []models.DetectedMaterial{
		{Material: "metal", Quantity: 1.0, Confidence: 0.9},
		{Material: "glass", Quantity: 0.5, Confidence: 0.8},
	})
	require.NoError(t, err)

	assert.Equal(t, 8.65, got.TotalCarbon)
	require.Len(t, got.Breakdown, 2)
	assert.Equal(t, "metal", got.Breakdown[0].Material)
	assert.Equal(t, "glass", got.Breakdown[1].Material)
	assert.InDelta(t, 8.2, got.Breakdown[0].TotalCarbon, 1e-9)
	assert.InDelta(t, 0.45, got.Breakdown[1].TotalCarbon, 1e-9)
}

func TestComputeTotalIsOrderIndependent(t *testing.T) {
	base := []models.DetectedMaterial{
		{Material: "plastic", Quantity: 0.37, Confidence: 0.7},
		{Material: "metal", Quantity: 0.91, Confidence: 0.6},
		{Material: "wood", Quantity: 0.23, Confidence: 0.99},
	}
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	first, err := Compute(catalog.Default(), base)
	require.NoError(t, err)

	for _, p := range perms {
		in := []models.DetectedMaterial{base[p[0]], base[p[1]], base[p[2]]}
		got, err := Compute(catalog.Default(), in)
		require.NoError(t, err)

		assert.Equal(t, first.TotalCarbon, got.TotalCarbon)
		for i, line := range got.Breakdown {
			assert.Equal(t, in[i].Material, line.Material)
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	in := []models.DetectedMaterial{
		{Material: "rubber", Quantity: 0.44, Confidence: 0.61},
		{Material: "paper", Quantity: 0.8, Confidence: 0.75},
	}
	a, err := Compute(catalog.Default(), in)
	require.NoError(t, err)
	b, err := Compute(catalog.Default(), in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeEmpty(t *testing.T) {
	got, err := Compute(catalog.Default(), nil)
	require.NoError(t, err)
	assert.Zero(t, got.TotalCarbon)
	assert.Empty(t, got.Breakdown)
}

func TestComputeRejectsInconsistentDetections(t *testing.T) {
	tests := []struct {
		name string
		in   models.DetectedMaterial
	}{
		{"unknown material", models.DetectedMaterial{Material: "kryptonite", Quantity: 1, Confidence: 0.9}},
		{"zero quantity", models.DetectedMaterial{Material: "glass", Quantity: 0, Confidence: 0.9}},
		{"negative quantity", models.DetectedMaterial{Material: "glass", Quantity: -1, Confidence: 0.9}},
		{"confidence above one", models.DetectedMaterial{Material: "glass", Quantity: 1, Confidence: 1.2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(catalog.Default(), []models.DetectedMaterial{tt.in})
			var cerr *ConsistencyError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.in.Material, cerr.MaterialID)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005000001))
	assert.Equal(t, 2.5, Round2(2.4999999))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, 0.01, Round2(0.005000001))
}
