package drive

import (
	"math"
	"time"

	"github.com/robotalks/cugo.go/pkg/geometry"
)

// Odometry is the integrated pose and the body frame velocity.
type Odometry struct {
	Pose  geometry.Pose2D
	Twist geometry.Twist2D
	Stamp time.Time
}

// Integrator integrates encoder deltas into odometry using the
// midpoint heading of each step.
type Integrator struct {
	Geometry
	// EncoderResolution is counts per wheel revolution.
	EncoderResolution float64
}

// Distance converts counts into travelled distance of a wheel.
func (in *Integrator) Distance(counts int64, radius float64) float64 {
	return 2 * math.Pi * radius * float64(counts) / in.EncoderResolution
}

// Integrate advances prev by the deltas observed at stamp.
// If prev has no stamp it only gets stamped, and a non-positive
// elapsed time leaves prev unchanged.
func (in *Integrator) Integrate(prev Odometry, dl, dr int64, stamp time.Time) Odometry {
	if prev.Stamp.IsZero() {
		prev.Stamp = stamp
		return prev
	}
	dt := stamp.Sub(prev.Stamp).Seconds()
	if dt <= 0 {
		return prev
	}
	sl := in.Distance(dl, in.WheelRadiusLeft)
	sr := in.Distance(dr, in.WheelRadiusRight)
	ds := (sl + sr) / 2
	dyaw := (sr - sl) / in.Tread

	next := prev
	next.Pose.OffsetBy(prev.Pose.Orientation.AddRadians(dyaw / 2).Project(ds))
	next.Pose.Orientation = prev.Pose.Orientation.AddRadians(dyaw)
	next.Twist = geometry.Twist2D{X: ds / dt, Yaw: dyaw / dt}
	next.Stamp = stamp
	return next
}

// Acceleration computes the translational and angular acceleration
// magnitudes implied between two samples. Zero when no time elapsed.
func Acceleration(prev, next Odometry) (linear, angular float64) {
	if prev.Stamp.IsZero() {
		return 0, 0
	}
	dt := next.Stamp.Sub(prev.Stamp).Seconds()
	if dt <= 0 {
		return 0, 0
	}
	linear = math.Abs(next.Twist.X-prev.Twist.X) / dt
	angular = math.Abs(next.Twist.Yaw-prev.Twist.Yaw) / dt
	return
}
