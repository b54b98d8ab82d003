// Package geometry provides the planar types shared by kinematics,
// odometry and the published messages.
package geometry

// Pos2D defines the position in 2D.
type Pos2D struct {
	X, Y float64
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// Twist2D is a body frame velocity.
type Twist2D struct {
	// Linear velocity along body X and Y (m/s).
	X, Y float64
	// Angular velocity around Z (rad/s).
	Yaw float64
}

// Quaternion is a rotation in 3D.
type Quaternion struct {
	X, Y, Z, W float64
}

// Angle is the common representation of angle,
// supporting multiple units.
type Angle float64

// OffsetBy moves p by p1 in place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}
