// Package l1 defines how the bridge is exposed to higher level components.
// Commands arrive through Registrars, odometry and status leave as events.
package l1

import (
	"context"
	"time"

	fx "github.com/robotalks/cugo.go/pkg/framework"
)

// Registrar registers the bridge to a registry and carries its events.
type Registrar interface {
	// SendEvent sends an event to every listener of the registry.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	// Done replies the command.
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a Message.
type CommandMsg struct {
	Command Command
	// ReceivedAt is when the command arrived, zero if unknown.
	ReceivedAt time.Time
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef is a reference to a bridge instance.
type ControllerRef struct {
	// Type is the robot type.
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the name from ref.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta provides metadata of a bridge instance.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo provides information of a bridge instance.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector is used by operator tools to reach a bridge.
type Connector interface {
	// Discover enumerates registered bridges.
	Discover(context.Context) ([]ControllerInfo, error)
	// Connect connects to the specified bridge.
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is the connection to a bridge.
type ControllerConn interface {
	// DoCommand sends a command.
	DoCommand(fx.Message) CommandFuture
	// Events receives the events published by the bridge.
	Events() <-chan fx.Message
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
