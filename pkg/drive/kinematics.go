package drive

import (
	"fmt"
	"math"
)

const rpmPerRadPerSec = 60 / (2 * math.Pi)

// Geometry is the physical description of a differential drive.
type Geometry struct {
	// WheelRadiusLeft and WheelRadiusRight are in meters.
	WheelRadiusLeft  float64
	WheelRadiusRight float64
	// ReductionRatio is motor rotations per wheel rotation.
	ReductionRatio float64
	// Tread is the distance between the wheels in meters.
	Tread float64
}

// MotionCommand is the desired body velocity.
type MotionCommand struct {
	// Linear velocity in m/s.
	Linear float64
	// Angular velocity in rad/s, positive turns left.
	Angular float64
}

// WheelCommand is the target motor speed of each wheel.
type WheelCommand struct {
	RPMLeft  float64
	RPMRight float64
}

// IsZero tells if both wheels are commanded to stop.
func (c WheelCommand) IsZero() bool {
	return c.RPMLeft == 0 && c.RPMRight == 0
}

// Validate checks the geometry is usable.
func (g Geometry) Validate() error {
	if g.WheelRadiusLeft <= 0 || g.WheelRadiusRight <= 0 {
		return fmt.Errorf("%w: wheel radius must be positive", ErrInvalidGeometry)
	}
	if g.ReductionRatio <= 0 {
		return fmt.Errorf("%w: reduction ratio must be positive", ErrInvalidGeometry)
	}
	if g.Tread <= 0 {
		return fmt.Errorf("%w: tread must be positive", ErrInvalidGeometry)
	}
	return nil
}

// Forward converts a body velocity into wheel speeds.
func (g Geometry) Forward(cmd MotionCommand) WheelCommand {
	half := cmd.Angular * g.Tread / 2
	return WheelCommand{
		RPMLeft:  (cmd.Linear - half) / g.WheelRadiusLeft * g.ReductionRatio * rpmPerRadPerSec,
		RPMRight: (cmd.Linear + half) / g.WheelRadiusRight * g.ReductionRatio * rpmPerRadPerSec,
	}
}

// Inverse converts wheel speeds back into the body velocity.
func (g Geometry) Inverse(w WheelCommand) MotionCommand {
	vl := w.RPMLeft / rpmPerRadPerSec / g.ReductionRatio * g.WheelRadiusLeft
	vr := w.RPMRight / rpmPerRadPerSec / g.ReductionRatio * g.WheelRadiusRight
	return MotionCommand{
		Linear:  (vl + vr) / 2,
		Angular: (vr - vl) / g.Tread,
	}
}
