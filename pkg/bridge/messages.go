package bridge

import (
	"time"

	"github.com/robotalks/cugo.go/pkg/drive"
	"github.com/robotalks/cugo.go/pkg/failsafe"
	"github.com/robotalks/cugo.go/pkg/geometry"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

func quaternionMsg(a geometry.Angle) *msgs.Quaternion {
	q := a.Quaternion()
	return &msgs.Quaternion{X: q.X, Y: q.Y, Z: q.Z, W: q.W}
}

func (b *Bridge) odometryMsg(now time.Time, odom drive.Odometry) *msgs.Odometry {
	return &msgs.Odometry{
		Stamp:        now.UnixNano(),
		FrameId:      b.conf.FrameID,
		ChildFrameId: b.conf.ChildFrameID,
		Pose: &msgs.Pose{
			Position:    &msgs.Vector3{X: odom.Pose.X, Y: odom.Pose.Y},
			Orientation: quaternionMsg(odom.Pose.Orientation),
		},
		Twist: &msgs.Velocity{
			Linear:  &msgs.Vector3{X: odom.Twist.X, Y: odom.Twist.Y},
			Angular: &msgs.Vector3{Z: odom.Twist.Yaw},
		},
		PoseCovariance:  b.conf.PoseCovariance,
		TwistCovariance: b.conf.TwistCovariance,
	}
}

func (b *Bridge) transformMsg(now time.Time, odom drive.Odometry) *msgs.Transform {
	return &msgs.Transform{
		Stamp:        now.UnixNano(),
		FrameId:      b.conf.FrameID,
		ChildFrameId: b.conf.ChildFrameID,
		Translation:  &msgs.Vector3{X: odom.Pose.X, Y: odom.Pose.Y},
		Rotation:     quaternionMsg(odom.Pose.Orientation),
	}
}

func (b *Bridge) statusMsg(st failsafe.Status) *msgs.BridgeStatus {
	m := &msgs.BridgeStatus{
		State:          st.State.String(),
		Reason:         st.Reason,
		RecvErrors:     uint32(st.Recv),
		ChecksumErrors: uint32(st.Checksum),
		FramingErrors:  uint32(st.Framing),
		DiffErrors:     uint32(st.Diff),
		OverflowErrors: uint32(st.Overflow),
		AbnormalAcc:    st.AbnormalAcc,
		Degraded:       st.Degraded,
	}
	if !st.LastRecv.IsZero() {
		m.Stamp = st.LastRecv.UnixNano()
	}
	return m
}
