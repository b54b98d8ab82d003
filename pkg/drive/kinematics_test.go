package drive

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var testGeometry = Geometry{
	WheelRadiusLeft:  0.03858,
	WheelRadiusRight: 0.03858,
	ReductionRatio:   1,
	Tread:            0.376,
}

func TestForward(t *testing.T) {
	w := testGeometry.Forward(MotionCommand{Linear: 1})
	require.InDelta(t, 1/0.03858*60/(2*math.Pi), w.RPMLeft, 1e-9)
	require.Equal(t, w.RPMLeft, w.RPMRight)

	w = testGeometry.Forward(MotionCommand{Angular: 1})
	require.True(t, w.RPMRight > 0)
	require.InDelta(t, -w.RPMRight, w.RPMLeft, 1e-9)

	require.True(t, testGeometry.Forward(MotionCommand{}).IsZero())
}

func TestKinematicsInverse(t *testing.T) {
	geometries := []struct {
		name string
		geo  Geometry
	}{
		{"symmetric", testGeometry},
		{"asymmetric", Geometry{WheelRadiusLeft: 0.05, WheelRadiusRight: 0.052, ReductionRatio: 20, Tread: 0.5}},
	}
	commands := []MotionCommand{
		{},
		{Linear: 0.5},
		{Angular: -1.2},
		{Linear: -0.3, Angular: 2},
		{Linear: 1.7, Angular: 0.01},
	}
	for _, g := range geometries {
		t.Run(g.name, func(t *testing.T) {
			for _, cmd := range commands {
				back := g.geo.Inverse(g.geo.Forward(cmd))
				require.InDelta(t, cmd.Linear, back.Linear, 1e-9)
				require.InDelta(t, cmd.Angular, back.Angular, 1e-9)
			}
		})
	}
}

func TestGeometryValidate(t *testing.T) {
	require.NoError(t, testGeometry.Validate())
	bad := testGeometry
	bad.Tread = 0
	require.Error(t, bad.Validate())
	bad = testGeometry
	bad.WheelRadiusRight = -1
	require.Error(t, bad.Validate())
	bad = testGeometry
	bad.ReductionRatio = 0
	require.Error(t, bad.Validate())
}
