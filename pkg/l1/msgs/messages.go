package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/cugo.go/pkg/framework"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{Message: err.Error()}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// Twist commands the body velocity.
type Twist struct {
	// Linear velocity in m/s.
	Linear float64 `protobuf:"fixed64,1,opt,name=linear,proto3" json:"linear,omitempty"`
	// Angular velocity in rad/s.
	Angular float64 `protobuf:"fixed64,2,opt,name=angular,proto3" json:"angular,omitempty"`
}

// NewMessage implements Message.
func (m *Twist) NewMessage() fx.Message { return &Twist{} }

// TypeID implements SerializableMessage.
func (m *Twist) TypeID() uint32 { return TwistTypeID }

// Serializable implements SerializableMessage.
func (m *Twist) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Twist) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Twist) Reset() { *m = Twist{} }

// String implements proto.Message.
func (m *Twist) String() string { return proto.CompactTextString(m) }

// StatusQuery queries the bridge status.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply is the response for StatusQuery.
type StatusReply struct {
	Status *BridgeStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// Vector3 is a vector in 3D.
type Vector3 struct {
	X float64 `protobuf:"fixed64,1,opt,name=x,proto3" json:"x,omitempty"`
	Y float64 `protobuf:"fixed64,2,opt,name=y,proto3" json:"y,omitempty"`
	Z float64 `protobuf:"fixed64,3,opt,name=z,proto3" json:"z,omitempty"`
}

// Quaternion is a rotation in 3D.
type Quaternion struct {
	X float64 `protobuf:"fixed64,1,opt,name=x,proto3" json:"x,omitempty"`
	Y float64 `protobuf:"fixed64,2,opt,name=y,proto3" json:"y,omitempty"`
	Z float64 `protobuf:"fixed64,3,opt,name=z,proto3" json:"z,omitempty"`
	W float64 `protobuf:"fixed64,4,opt,name=w,proto3" json:"w,omitempty"`
}

// Pose is a position with an orientation.
type Pose struct {
	Position    *Vector3    `protobuf:"bytes,1,opt,name=position,proto3" json:"position,omitempty"`
	Orientation *Quaternion `protobuf:"bytes,2,opt,name=orientation,proto3" json:"orientation,omitempty"`
}

// Velocity is a linear and angular velocity in 3D.
type Velocity struct {
	Linear  *Vector3 `protobuf:"bytes,1,opt,name=linear,proto3" json:"linear,omitempty"`
	Angular *Vector3 `protobuf:"bytes,2,opt,name=angular,proto3" json:"angular,omitempty"`
}

// Odometry is the event carrying the estimated pose and velocity.
// Covariances are row-major 6x6 matrices over (x, y, z, roll, pitch, yaw).
type Odometry struct {
	Stamp           int64     `protobuf:"varint,1,opt,name=stamp,proto3" json:"stamp,omitempty"`
	FrameId         string    `protobuf:"bytes,2,opt,name=frame_id,proto3" json:"frame_id,omitempty"`
	ChildFrameId    string    `protobuf:"bytes,3,opt,name=child_frame_id,proto3" json:"child_frame_id,omitempty"`
	Pose            *Pose     `protobuf:"bytes,4,opt,name=pose,proto3" json:"pose,omitempty"`
	Twist           *Velocity `protobuf:"bytes,5,opt,name=twist,proto3" json:"twist,omitempty"`
	PoseCovariance  []float64 `protobuf:"fixed64,6,rep,packed,name=pose_covariance,proto3" json:"pose_covariance,omitempty"`
	TwistCovariance []float64 `protobuf:"fixed64,7,rep,packed,name=twist_covariance,proto3" json:"twist_covariance,omitempty"`
}

// NewMessage implements Message.
func (m *Odometry) NewMessage() fx.Message { return &Odometry{} }

// TypeID implements SerializableMessage.
func (m *Odometry) TypeID() uint32 { return OdometryTypeID }

// Serializable implements SerializableMessage.
func (m *Odometry) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Odometry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Odometry) Reset() { *m = Odometry{} }

// String implements proto.Message.
func (m *Odometry) String() string { return proto.CompactTextString(m) }

// Transform is the event carrying the odometry frame transform.
type Transform struct {
	Stamp        int64       `protobuf:"varint,1,opt,name=stamp,proto3" json:"stamp,omitempty"`
	FrameId      string      `protobuf:"bytes,2,opt,name=frame_id,proto3" json:"frame_id,omitempty"`
	ChildFrameId string      `protobuf:"bytes,3,opt,name=child_frame_id,proto3" json:"child_frame_id,omitempty"`
	Translation  *Vector3    `protobuf:"bytes,4,opt,name=translation,proto3" json:"translation,omitempty"`
	Rotation     *Quaternion `protobuf:"bytes,5,opt,name=rotation,proto3" json:"rotation,omitempty"`
}

// NewMessage implements Message.
func (m *Transform) NewMessage() fx.Message { return &Transform{} }

// TypeID implements SerializableMessage.
func (m *Transform) TypeID() uint32 { return TransformTypeID }

// Serializable implements SerializableMessage.
func (m *Transform) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Transform) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Transform) Reset() { *m = Transform{} }

// String implements proto.Message.
func (m *Transform) String() string { return proto.CompactTextString(m) }

// BridgeStatus is the event reporting link health.
type BridgeStatus struct {
	Stamp          int64  `protobuf:"varint,1,opt,name=stamp,proto3" json:"stamp,omitempty"`
	State          string `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
	Reason         string `protobuf:"bytes,3,opt,name=reason,proto3" json:"reason,omitempty"`
	RecvErrors     uint32 `protobuf:"varint,4,opt,name=recv_errors,proto3" json:"recv_errors,omitempty"`
	ChecksumErrors uint32 `protobuf:"varint,5,opt,name=checksum_errors,proto3" json:"checksum_errors,omitempty"`
	FramingErrors  uint32 `protobuf:"varint,6,opt,name=framing_errors,proto3" json:"framing_errors,omitempty"`
	DiffErrors     uint32 `protobuf:"varint,7,opt,name=diff_errors,proto3" json:"diff_errors,omitempty"`
	OverflowErrors uint32 `protobuf:"varint,8,opt,name=overflow_errors,proto3" json:"overflow_errors,omitempty"`
	AbnormalAcc    bool   `protobuf:"varint,9,opt,name=abnormal_acc,proto3" json:"abnormal_acc,omitempty"`
	Degraded       bool   `protobuf:"varint,10,opt,name=degraded,proto3" json:"degraded,omitempty"`
}

// NewMessage implements Message.
func (m *BridgeStatus) NewMessage() fx.Message { return &BridgeStatus{} }

// TypeID implements SerializableMessage.
func (m *BridgeStatus) TypeID() uint32 { return BridgeStatusTypeID }

// Serializable implements SerializableMessage.
func (m *BridgeStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BridgeStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BridgeStatus) Reset() { *m = BridgeStatus{} }

// String implements proto.Message.
func (m *BridgeStatus) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand   uint32 = 0x00000000
	GroupDiffDrive uint32 = 0x00030000
	GroupCustom    uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID    uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID   uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	TwistTypeID        uint32 = GroupDiffDrive | 0x0001
	StatusQueryTypeID  uint32 = GroupDiffDrive | 0x0002
	StatusReplyTypeID  uint32 = StatusQueryTypeID | TypeIDMaskReply
	OdometryTypeID     uint32 = GroupDiffDrive | TypeIDKindEvent | 0x0001
	TransformTypeID    uint32 = GroupDiffDrive | TypeIDKindEvent | 0x0002
	BridgeStatusTypeID uint32 = GroupDiffDrive | TypeIDKindEvent | 0x0003
)

func init() {
	Register(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*Twist)(nil),
		(*StatusQuery)(nil),
		(*StatusReply)(nil),
		(*Odometry)(nil),
		(*Transform)(nil),
		(*BridgeStatus)(nil),
	)
}
