package deadzone_test

import (
	"math"
	"testing"

	"github.com/Alia5/padbridge/deadzone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeInsideRadius(t *testing.T) {
	const radius = 0.25
	for angle := 0.0; angle < 2*math.Pi; angle += math.Pi / 16 {
		for _, m := range []float64{0, 0.05, 0.1, 0.2, radius} {
			x, y := m*math.Cos(angle), m*math.Sin(angle)
			sx, sy := deadzone.Shape(x, y, radius)
			assert.Equal(t, 0.0, sx, "m=%v angle=%v", m, angle)
			assert.Equal(t, 0.0, sy, "m=%v angle=%v", m, angle)
		}
	}
}

func TestShapeMonotonicToUnit(t *testing.T) {
	const radius = 0.2
	for angle := 0.0; angle < 2*math.Pi; angle += math.Pi / 7 {
		prev := 0.0
		for m := radius + 0.01; m <= 1.0; m += 0.01 {
			sx, sy := deadzone.Shape(m*math.Cos(angle), m*math.Sin(angle), radius)
			got := math.Hypot(sx, sy)
			assert.Greater(t, got, prev, "m=%v angle=%v", m, angle)
			prev = got
		}
		sx, sy := deadzone.Shape(math.Cos(angle), math.Sin(angle), radius)
		assert.InDelta(t, 1.0, math.Hypot(sx, sy), 1e-9)
	}
}

func TestShapePreservesDirection(t *testing.T) {
	sx, sy := deadzone.Shape(-0.6, 0.8, 0.5)
	require.Less(t, sx, 0.0)
	require.Greater(t, sy, 0.0)
	assert.InDelta(t, -0.6/0.8, sx/sy, 1e-9)

	// Outside the unit circle the magnitude saturates at 1.
	sx, sy = deadzone.Shape(1, 1, 0.1)
	assert.InDelta(t, 1.0, math.Hypot(sx, sy), 1e-9)
}

func TestDeadzoneComponent(t *testing.T) {
	type testCase struct {
		name     string
		dz       deadzone.Deadzone
		v        float64
		paired   float64
		isX      bool
		expected float64
	}

	cases := []testCase{
		{name: "radial x only", dz: deadzone.Deadzone{Radius: 0.2}, v: 0.5, isX: true, expected: 0.375},
		{name: "radial y negative", dz: deadzone.Deadzone{Radius: 0.2}, v: -0.5, isX: false, expected: -0.375},
		{name: "radial inside", dz: deadzone.Deadzone{Radius: 0.2}, v: 0.1, paired: 0.1, isX: true, expected: 0},
		{name: "radial paired pushes out", dz: deadzone.Deadzone{Radius: 0.2}, v: 0.0, paired: 0.9, isX: true, expected: 0},
		{name: "radial diagonal", dz: deadzone.Deadzone{Radius: 0.5}, v: 0.6, paired: 0.8, isX: true, expected: 0.6},
		{name: "axial ignores paired", dz: deadzone.Deadzone{Type: deadzone.Axial, Radius: 0.2}, v: 0.1, paired: 0.9, isX: true, expected: 0},
		{name: "axial rescales", dz: deadzone.Deadzone{Type: deadzone.Axial, Radius: 0.2}, v: -0.6, paired: 0, isX: false, expected: -0.5},
		{name: "zero radius passthrough", dz: deadzone.Deadzone{}, v: 0.3, isX: true, expected: 0.3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.dz.Component(tc.v, tc.paired, tc.isX), 1e-9)
		})
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, 0.0, deadzone.Band(0, 0))
	assert.Equal(t, 0.0, deadzone.Band(-0.1, 0.1))
	assert.InDelta(t, 1.0, deadzone.Band(1, 0.3), 1e-12)
	assert.InDelta(t, -1.0, deadzone.Band(-2, 0.3), 1e-12)
	assert.Equal(t, 0.0, deadzone.Band(0.9, 1), "a full radius is all dead")
}

func TestParseType(t *testing.T) {
	typ, err := deadzone.ParseType("Axial")
	require.NoError(t, err)
	assert.Equal(t, deadzone.Axial, typ)

	typ, err = deadzone.ParseType("")
	require.NoError(t, err)
	assert.Equal(t, deadzone.Radial, typ)

	_, err = deadzone.ParseType("square")
	assert.Error(t, err)
}
