package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/cugo.go/pkg/drive"
	"github.com/robotalks/cugo.go/pkg/failsafe"
	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l0/comm"
	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

// Snapshot is the result of the latest cycle.
type Snapshot struct {
	Command  drive.MotionCommand
	Wheel    drive.WheelCommand
	Odometry drive.Odometry
	Status   failsafe.Status
}

// Bridge is the controller driving the MCU once per loop iteration.
// Except Snapshot and Close, methods must be called from the loop goroutine.
type Bridge struct {
	// Registrar receives the published events, optional.
	Registrar l1.Registrar
	// Now is the clock used outside loop iterations, time.Now if nil.
	Now func() time.Time

	conf       Config
	transport  comm.Transport
	integrator drive.Integrator
	counter    *drive.Counter
	monitor    *failsafe.Monitor

	command      drive.MotionCommand
	lastState    failsafe.State
	lastReason   string
	lastDegraded bool
	statusSent   bool
	closeOnce    sync.Once
	closeErr     error
	snapshotMu   sync.RWMutex
	snapshot     Snapshot
}

// New creates a Bridge over an opened transport. The Bridge owns the transport.
func New(conf Config, t comm.Transport) (*Bridge, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	b := &Bridge{
		conf:       conf,
		transport:  t,
		integrator: drive.Integrator{Geometry: conf.Geometry, EncoderResolution: conf.EncoderResolution},
		counter:    drive.NewCounter(conf.EncoderBound, conf.EncoderMaxDelta),
	}
	b.monitor = failsafe.NewMonitor(conf.Failsafe, b.counter, &b.integrator, conf.InitialPose)
	b.snapshot.Odometry = b.monitor.LastGood()
	return b, nil
}

// Config returns the configuration in use.
func (b *Bridge) Config() Config {
	return b.conf
}

func (b *Bridge) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// AddToLoop implements LoopAdder.
func (b *Bridge) AddToLoop(loop *fx.Loop) {
	loop.Interval = b.conf.Period()
	if b.Now != nil && loop.Now == nil {
		loop.Now = b.Now
	}
	loop.AddController(fx.StageControl, b)
}

// Start implements Starter. It sends zero commands until the first valid
// encoder counts arrive to seed the baseline. Giving up is not an error,
// the first sample in the loop becomes the baseline then.
func (b *Bridge) Start(ctx context.Context) error {
	if b.conf.HandshakeTimeout <= 0 {
		return nil
	}
	deadline := time.Now().Add(b.conf.HandshakeTimeout)
	for attempts := 1; time.Now().Before(deadline); attempts++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, err := b.exchange(ctx, drive.WheelCommand{})
		if err != nil {
			glog.V(2).Infof("handshake: attempt %d: %v", attempts, err)
			continue
		}
		left, right := pkt.Counts()
		b.monitor.Accept(b.now(), int64(left), int64(right))
		glog.Infof("handshake: baseline %d, %d after %d attempts", left, right, attempts)
		return nil
	}
	glog.Warningf("handshake: no encoder counts within %v", b.conf.HandshakeTimeout)
	return nil
}

// Stop implements Stopper. It sends a final zero command and closes the transport.
func (b *Bridge) Stop(ctx context.Context) {
	if err := b.send(drive.WheelCommand{}); err != nil {
		glog.Warningf("send final stop: %v", err)
	}
	b.Close()
}

// Close closes the transport exactly once. It's safe to call from any
// goroutine and interrupts a pending receive.
func (b *Bridge) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = b.transport.Close()
	})
	return b.closeErr
}

// Control implements Controller.
func (b *Bridge) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		switch m := mctx.CurrentMessage().(type) {
		case *msgs.Twist:
			mctx.MessageTaken()
			b.SetCommand(cc.Time(), drive.MotionCommand{Linear: m.Linear, Angular: m.Angular})
		case *l1.CommandMsg:
			at := m.ReceivedAt
			if at.IsZero() {
				at = cc.Time()
			}
			if reply := b.handleCommand(at, m.Command.Msg()); reply != nil {
				mctx.MessageTaken()
				if err := m.Command.Done(reply); err != nil {
					glog.Warningf("reply command: %v", err)
				}
			}
		}
	}))
	b.Step(cc.Context(), cc.Time())
	return nil
}

func (b *Bridge) handleCommand(now time.Time, msg fx.Message) fx.Message {
	switch m := msg.(type) {
	case *msgs.Twist:
		b.SetCommand(now, drive.MotionCommand{Linear: m.Linear, Angular: m.Angular})
		return msgs.NewCommandOK()
	case *msgs.StatusQuery:
		return &msgs.StatusReply{Status: b.statusMsg(b.monitor.Status(now))}
	}
	return nil
}

// SetCommand sets the velocity command received at now. The last one wins.
func (b *Bridge) SetCommand(now time.Time, cmd drive.MotionCommand) {
	b.command = cmd
	b.monitor.CommandReceived(now)
}

// Step runs one cycle: send the wheel command, receive and validate the
// encoder counts, integrate and publish. It always produces odometry.
func (b *Bridge) Step(ctx context.Context, now time.Time) Snapshot {
	wheel := b.monitor.FilterCommand(now, b.conf.Geometry.Forward(b.command))
	var odom drive.Odometry
	pkt, err := b.exchange(ctx, wheel)
	if err != nil {
		odom = b.monitor.Fail(err)
		glog.V(1).Infof("receive: %v", err)
	} else {
		left, right := pkt.Counts()
		if odom, err = b.monitor.Accept(now, int64(left), int64(right)); err != nil {
			glog.V(1).Infof("encoder %d, %d: %v", left, right, err)
		}
	}

	s := Snapshot{
		Command:  b.command,
		Wheel:    wheel,
		Odometry: odom,
		Status:   b.monitor.Status(now),
	}
	b.snapshotMu.Lock()
	b.snapshot = s
	b.snapshotMu.Unlock()

	b.logState(s.Status)
	b.publish(ctx, now, s)
	return s
}

// Snapshot returns the result of the latest cycle.
func (b *Bridge) Snapshot() Snapshot {
	b.snapshotMu.RLock()
	defer b.snapshotMu.RUnlock()
	return b.snapshot
}

func (b *Bridge) send(wheel drive.WheelCommand) error {
	pkt := comm.NewRPMPacket(uint16(b.conf.SourcePort), uint16(b.conf.DestPort),
		float32(wheel.RPMLeft), float32(wheel.RPMRight))
	data := pkt.Bytes()
	glog.V(2).Infof("SND % x", data[:comm.HeaderSize+8])
	return b.transport.Send(data)
}

// exchange sends the wheel command and waits for the encoder counts.
func (b *Bridge) exchange(ctx context.Context, wheel drive.WheelCommand) (*comm.Packet, error) {
	// a late reply to a previous cycle must not be taken for this one
	if d, ok := b.transport.(comm.Drainer); ok {
		if n := d.Drain(); n > 0 {
			glog.V(1).Infof("discarded %d late packets", n)
		}
	}
	if err := b.send(wheel); err != nil {
		glog.Warningf("send: %v", err)
	}
	data, err := b.transport.Receive(ctx, b.conf.RecvTimeout)
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("RCV % x", data)
	return comm.ParsePacket(data)
}

func (b *Bridge) logState(st failsafe.Status) {
	if st.State == b.lastState && st.Reason == b.lastReason {
		return
	}
	if st.State == failsafe.Normal {
		glog.Infof("state %s -> %s", b.lastState, st.State)
	} else {
		glog.Warningf("state %s -> %s %s (recv %d, checksum %d, framing %d, diff %d, overflow %d)",
			b.lastState, st.State, st.Reason, st.Recv, st.Checksum, st.Framing, st.Diff, st.Overflow)
	}
}

func (b *Bridge) publish(ctx context.Context, now time.Time, s Snapshot) {
	changed := !b.statusSent || s.Status.State != b.lastState ||
		s.Status.Reason != b.lastReason || s.Status.Degraded != b.lastDegraded
	b.lastState, b.lastReason, b.lastDegraded = s.Status.State, s.Status.Reason, s.Status.Degraded
	if b.Registrar == nil {
		return
	}
	events := []fx.Message{b.odometryMsg(now, s.Odometry), b.transformMsg(now, s.Odometry)}
	if changed {
		events = append(events, b.statusMsg(s.Status))
		b.statusSent = true
	}
	for _, ev := range events {
		if err := b.Registrar.SendEvent(ctx, ev); err != nil {
			glog.V(1).Infof("publish: %v", err)
		}
	}
}
