// Package mcu simulates the motor control unit firmware: it takes wheel
// speed commands and answers each with the encoder counts.
package mcu

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cugo.go/pkg/drive"
	"github.com/robotalks/cugo.go/pkg/l0/comm"
)

// Faults injects link failures, every Nth reply. 0 disables.
type Faults struct {
	DropEvery    int
	CorruptEvery int
}

// MCU is the simulated firmware. It is driven by Run or Handle.
type MCU struct {
	// EncoderResolution is counts per wheel revolution.
	EncoderResolution float64
	// ReductionRatio is motor rotations per wheel rotation.
	ReductionRatio float64
	Faults         Faults
	// Now is the clock, time.Now if nil.
	Now func() time.Time

	left, right Wheel
	countL      float64
	countR      float64
	offsetL     int64
	offsetR     int64
	lastUpdate  time.Time
	replies     int
	lock        sync.Mutex
}

// New creates an MCU with the initial counter values.
func New(resolution, reductionRatio, accel float64, initialLeft, initialRight int32) *MCU {
	m := &MCU{
		EncoderResolution: resolution,
		ReductionRatio:    reductionRatio,
		offsetL:           int64(initialLeft),
		offsetR:           int64(initialRight),
	}
	m.left.Accel, m.right.Accel = accel, accel
	return m
}

func (m *MCU) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Counts returns the counter values as the firmware reports them, wrapped
// in int32.
func (m *MCU) Counts() (left, right int32) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.counts()
}

func (m *MCU) counts() (left, right int32) {
	return int32(m.offsetL + int64(math.Round(m.countL))), int32(m.offsetR + int64(math.Round(m.countR)))
}

// Speeds returns the current motor speeds.
func (m *MCU) Speeds() drive.WheelCommand {
	m.lock.Lock()
	defer m.lock.Unlock()
	return drive.WheelCommand{RPMLeft: m.left.RPM, RPMRight: m.right.RPM}
}

// update advances the wheels to now.
func (m *MCU) update(now time.Time) {
	if !m.lastUpdate.IsZero() {
		dt := now.Sub(m.lastUpdate)
		m.countL += m.left.Advance(dt) / m.ReductionRatio * m.EncoderResolution
		m.countR += m.right.Advance(dt) / m.ReductionRatio * m.EncoderResolution
	}
	m.lastUpdate = now
}

// Handle processes one received packet and returns the reply, nil if
// the reply is dropped.
func (m *MCU) Handle(data []byte) ([]byte, error) {
	pkt, err := comm.ParsePacket(data)
	if err != nil {
		return nil, err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.update(m.now())
	rpmL, rpmR := pkt.RPM()
	m.left.Target, m.right.Target = float64(rpmL), float64(rpmR)

	m.replies++
	if n := m.Faults.DropEvery; n > 0 && m.replies%n == 0 {
		return nil, nil
	}
	l, r := m.counts()
	reply := comm.NewCountPacket(pkt.DestPort, pkt.SourcePort, l, r).Bytes()
	if n := m.Faults.CorruptEvery; n > 0 && m.replies%n == 0 {
		reply[comm.HeaderSize] ^= 0x01
	}
	return reply, nil
}

// Run serves the transport until ctx is done. Motors stop when commands
// stop arriving for stopAfter, 0 disables.
func (m *MCU) Run(ctx context.Context, t comm.Transport, stopAfter time.Duration) error {
	const pollTimeout = 50 * time.Millisecond
	lastCmd := m.now()
	for {
		data, err := t.Receive(ctx, pollTimeout)
		switch {
		case err == nil:
		case err == comm.ErrTimeout:
			if stopAfter > 0 && m.now().Sub(lastCmd) > stopAfter {
				m.halt()
			}
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		case err == comm.ErrClosed:
			return nil
		default:
			glog.Warningf("mcu: receive: %v", err)
			continue
		}
		reply, err := m.Handle(data)
		if err != nil {
			glog.Warningf("mcu: drop packet: %v", err)
			continue
		}
		lastCmd = m.now()
		if reply == nil {
			continue
		}
		if err := t.Send(reply); err != nil {
			glog.Warningf("mcu: send: %v", err)
		}
	}
}

func (m *MCU) halt() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.update(m.now())
	m.left.Target, m.right.Target = 0, 0
}
