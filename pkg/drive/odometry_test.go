package drive

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cugo.go/pkg/geometry"
)

func newTestIntegrator() *Integrator {
	return &Integrator{
		Geometry:          Geometry{WheelRadiusLeft: 0.1, WheelRadiusRight: 0.1, ReductionRatio: 1, Tread: 0.5},
		EncoderResolution: 1000,
	}
}

func TestIntegrateStraight(t *testing.T) {
	in := newTestIntegrator()
	t0 := time.Unix(100, 0)
	odom := in.Integrate(Odometry{}, 0, 0, t0)
	require.Equal(t, t0, odom.Stamp)
	require.Zero(t, odom.Pose.X)

	// one revolution of each wheel in 1s
	odom = in.Integrate(odom, 1000, 1000, t0.Add(time.Second))
	require.InDelta(t, 2*math.Pi*0.1, odom.Pose.X, 1e-9)
	require.InDelta(t, 0, odom.Pose.Y, 1e-9)
	require.InDelta(t, 2*math.Pi*0.1, odom.Twist.X, 1e-9)
	require.InDelta(t, 0, odom.Twist.Yaw, 1e-9)
}

func TestIntegrateRotate(t *testing.T) {
	in := newTestIntegrator()
	t0 := time.Unix(100, 0)
	odom := Odometry{Stamp: t0}
	// turn in place
	counts := int64(250)
	odom = in.Integrate(odom, -counts, counts, t0.Add(500*time.Millisecond))
	sr := in.Distance(counts, 0.1)
	require.InDelta(t, 2*sr/0.5, odom.Pose.Orientation.Radians(), 1e-9)
	require.InDelta(t, 0, odom.Pose.X, 1e-9)
	require.InDelta(t, 2*sr/0.5/0.5, odom.Twist.Yaw, 1e-9)
}

func TestIntegrateArcUsesMidpointHeading(t *testing.T) {
	in := newTestIntegrator()
	t0 := time.Unix(100, 0)
	odom := Odometry{Stamp: t0}
	odom.Pose.Orientation = geometry.AngleFromDegrees(90)
	odom = in.Integrate(odom, 500, 1000, t0.Add(time.Second))

	sl, sr := in.Distance(500, 0.1), in.Distance(1000, 0.1)
	ds, dyaw := (sl+sr)/2, (sr-sl)/0.5
	heading := math.Pi/2 + dyaw/2
	require.InDelta(t, ds*math.Cos(heading), odom.Pose.X, 1e-9)
	require.InDelta(t, ds*math.Sin(heading), odom.Pose.Y, 1e-9)
	require.True(t, odom.Pose.X < 0)
	require.InDelta(t, geometry.NormalizeRadians(math.Pi/2+dyaw), odom.Pose.Orientation.Radians(), 1e-9)
}

func TestIntegrateYawNormalized(t *testing.T) {
	in := newTestIntegrator()
	t0 := time.Unix(0, 0)
	odom := Odometry{Stamp: t0}
	for i := 1; i <= 200; i++ {
		odom = in.Integrate(odom, -300, 300, t0.Add(time.Duration(i)*10*time.Millisecond))
		yaw := odom.Pose.Orientation.Radians()
		require.True(t, yaw > -math.Pi && yaw <= math.Pi, "yaw %v", yaw)
	}
}

func TestIntegrateNoElapsedTime(t *testing.T) {
	in := newTestIntegrator()
	t0 := time.Unix(100, 0)
	prev := Odometry{Stamp: t0}
	prev.Twist.X = 0.3
	require.Equal(t, prev, in.Integrate(prev, 100, 100, t0))
	require.Equal(t, prev, in.Integrate(prev, 100, 100, t0.Add(-time.Second)))
}

func TestAcceleration(t *testing.T) {
	t0 := time.Unix(100, 0)
	prev := Odometry{Stamp: t0}
	next := Odometry{Stamp: t0.Add(100 * time.Millisecond)}
	next.Twist.X = 0.5
	next.Twist.Yaw = -2
	lin, ang := Acceleration(prev, next)
	require.InDelta(t, 5, lin, 1e-9)
	require.InDelta(t, 20, ang, 1e-9)

	lin, ang = Acceleration(Odometry{}, next)
	require.Zero(t, lin)
	require.Zero(t, ang)
}
