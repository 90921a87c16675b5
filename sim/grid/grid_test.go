package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

func TestRungeKutta_GammaIsAlphaPlusBeta(t *testing.T) {
	coefs := RungeKutta()
	total := 0.0
	for _, c := range coefs {
		assert.InDelta(t, c.Alpha+c.Beta, c.Gamma, 1e-15)
		total += c.Gamma
	}
	// the three sub-steps advance exactly one dt
	assert.InDelta(t, 1.0, total, 1e-15)
}

func TestNew_XCoordinates(t *testing.T) {
	g, err := New(4, 4, 2, parallel.NewWorld(1).Comm(0))
	require.NoError(t, err)

	assert.Equal(t, 0.25, g.DX)
	assert.Equal(t, 0.5, g.DY)
	assert.Equal(t, 0.0, g.XF[1])
	assert.Equal(t, 1.0, g.XF[5])
	assert.Equal(t, 0.0, g.XC[0], "wall centre sits on the face")
	assert.Equal(t, 0.125, g.XC[1])
	assert.Equal(t, 1.0, g.XC[5])
	assert.Equal(t, 0.125, g.DXC[1], "half spacing next to the wall")
	assert.Equal(t, 0.25, g.DXC[2])
	assert.Equal(t, 0.125, g.DXC[5])
	for i := 1; i <= 4; i++ {
		assert.Equal(t, 0.25, g.DXF[i])
	}
}

func TestNew_LocalSlabCoordinates(t *testing.T) {
	w := parallel.NewWorld(3)
	g, err := New(4, 8, 1, w.Comm(2))
	require.NoError(t, err)

	// GIVEN 8 rows over 3 ranks, rank 2 owns rows 5..7 (0-based)
	assert.Equal(t, 3, g.JSize)
	assert.Equal(t, 5, g.JOffset)
	assert.InDelta(t, 5*0.125, g.YF[1], 1e-15)
	assert.InDelta(t, 1.0, g.YF[g.JSize+1], 1e-15)
	assert.InDelta(t, 5.5*0.125, g.YC[1], 1e-15)
}

func TestNew_RejectsInvalidExtents(t *testing.T) {
	comm := parallel.NewWorld(4).Comm(0)
	_, err := New(8, 2, 1, comm)
	assert.Error(t, err)
	_, err = New(8, 8, 0, comm)
	assert.Error(t, err)
}

func TestGlobalY(t *testing.T) {
	g, err := New(4, 4, 1, parallel.NewWorld(1).Comm(0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, g.GlobalYF())
	assert.Equal(t, []float64{0.125, 0.375, 0.625, 0.875}, g.GlobalYC())
	assert.Equal(t, 0.25, g.GridSize())
}
