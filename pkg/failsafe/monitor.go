// Package failsafe guards odometry and wheel commands against stale
// commands, a broken link and implausible encoder samples.
package failsafe

import (
	"math"
	"time"

	"github.com/robotalks/cugo.go/pkg/drive"
	"github.com/robotalks/cugo.go/pkg/geometry"
	"github.com/robotalks/cugo.go/pkg/l0/comm"
)

// State is the operating state.
type State int

// States ordered by precedence.
const (
	Normal State = iota
	Degraded
	Stopped
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Degraded:
		return "degraded"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Reasons for being Stopped.
const (
	ReasonCommandTimeout = "command-timeout"
	ReasonLinkLost       = "link-lost"
)

// Config defines the thresholds of the monitor.
type Config struct {
	// StopMotorTime is how long a command stays valid.
	StopMotorTime time.Duration
	// LinkLostErrors consecutive receive errors stop the motors, 0 disables.
	LinkLostErrors int
	// RebaseAfter consecutive rejected samples rebase the encoder counter, 0 disables.
	RebaseAfter int
	// LinearAccLimit is in m/s^2.
	LinearAccLimit float64
	// AngularAccLimit is in rad/s^2.
	AngularAccLimit float64
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		StopMotorTime:   500 * time.Millisecond,
		LinkLostErrors:  25,
		RebaseAfter:     10,
		LinearAccLimit:  10,
		AngularAccLimit: 10 * math.Pi / 4,
	}
}

// Counters are the accumulated error counters.
type Counters struct {
	Recv     int
	Checksum int
	Framing  int
	Diff     int
	Overflow int
}

// Status is a snapshot of the monitor.
type Status struct {
	State  State
	Reason string
	// Degraded reports the link degradation even when Stopped takes precedence.
	Degraded bool
	Counters
	AbnormalAcc           bool
	ConsecutiveLinkErrors int
	LastRecv              time.Time
}

// Monitor owns the encoder counter and the integrated odometry and
// only lets validated values out. It's not safe for concurrent use.
type Monitor struct {
	conf       Config
	counter    *drive.Counter
	integrator *drive.Integrator

	lastGood        drive.Odometry
	lastGoodEncoder drive.EncoderState
	lastCommand     time.Time
	lastRecv        time.Time

	counters    Counters
	abnormalAcc bool
	degraded    bool
	linkErrors  int
	rejections  int
}

// NewMonitor creates a Monitor. The fallback odometry is seeded with initial
// and zero twist.
func NewMonitor(conf Config, counter *drive.Counter, integrator *drive.Integrator, initial geometry.Pose2D) *Monitor {
	return &Monitor{
		conf:            conf,
		counter:         counter,
		integrator:      integrator,
		lastGood:        drive.Odometry{Pose: initial},
		lastGoodEncoder: counter.State(),
	}
}

// LastGood returns the latest accepted odometry.
func (m *Monitor) LastGood() drive.Odometry {
	return m.lastGood
}

// Counters returns the error counters.
func (m *Monitor) Counters() Counters {
	return m.counters
}

// CommandReceived records the arrival of a velocity command.
func (m *Monitor) CommandReceived(at time.Time) {
	if at.After(m.lastCommand) {
		m.lastCommand = at
	}
}

func (m *Monitor) commandStale(now time.Time) bool {
	return m.lastCommand.IsZero() || now.Sub(m.lastCommand) > m.conf.StopMotorTime
}

func (m *Monitor) linkLost() bool {
	return m.conf.LinkLostErrors > 0 && m.linkErrors >= m.conf.LinkLostErrors
}

// State reports the state at now.
func (m *Monitor) State(now time.Time) State {
	s, _ := m.stateWithReason(now)
	return s
}

func (m *Monitor) stateWithReason(now time.Time) (State, string) {
	switch {
	case m.commandStale(now):
		return Stopped, ReasonCommandTimeout
	case m.linkLost():
		return Stopped, ReasonLinkLost
	case m.degraded:
		return Degraded, ""
	default:
		return Normal, ""
	}
}

// Status returns a snapshot at now.
func (m *Monitor) Status(now time.Time) Status {
	s, reason := m.stateWithReason(now)
	return Status{
		State:                 s,
		Reason:                reason,
		Degraded:              m.degraded,
		Counters:              m.counters,
		AbnormalAcc:           m.abnormalAcc,
		ConsecutiveLinkErrors: m.linkErrors,
		LastRecv:              m.lastRecv,
	}
}

// FilterCommand returns the wheel command allowed to go out at now.
// Stopped always yields exactly zero.
func (m *Monitor) FilterCommand(now time.Time, cmd drive.WheelCommand) drive.WheelCommand {
	if m.State(now) == Stopped {
		return drive.WheelCommand{}
	}
	return cmd
}

// Accept processes a checksum-valid encoder sample received at now and
// returns the odometry to publish. A non-nil error means the sample was
// clamped (drive.ErrOverflowAmbiguous) or rejected (*AccelerationError).
func (m *Monitor) Accept(now time.Time, left, right int64) (drive.Odometry, error) {
	m.lastRecv = now
	m.linkErrors = 0

	if !m.counter.State().Ready {
		m.counter.Sample(left, right)
		m.lastGoodEncoder = m.counter.State()
		m.lastGood.Stamp = now
		m.degraded = false
		return m.lastGood, nil
	}

	dl, dr, err := m.counter.Sample(left, right)
	if err != nil {
		m.counters.Overflow++
	}
	next := m.integrator.Integrate(m.lastGood, dl, dr, now)
	lin, ang := drive.Acceleration(m.lastGood, next)
	if lin > m.conf.LinearAccLimit || ang > m.conf.AngularAccLimit {
		m.reject()
		return m.lastGood, &AccelerationError{Linear: lin, Angular: ang}
	}

	m.lastGood, m.lastGoodEncoder = next, m.counter.State()
	m.rejections, m.abnormalAcc = 0, false
	m.degraded = err != nil
	return next, err
}

func (m *Monitor) reject() {
	m.counter.Restore(m.lastGoodEncoder)
	m.counters.Diff++
	m.abnormalAcc, m.degraded = true, true
	if m.rejections++; m.conf.RebaseAfter > 0 && m.rejections >= m.conf.RebaseAfter {
		m.counter.Rebase()
		m.rejections = 0
	}
}

// Fail records a failed receive and returns the odometry to publish.
func (m *Monitor) Fail(err error) drive.Odometry {
	switch {
	case comm.IsChecksumError(err):
		m.counters.Checksum++
	case comm.IsFramingError(err):
		m.counters.Framing++
	default:
		m.counters.Recv++
	}
	m.linkErrors++
	m.degraded = true
	return m.lastGood
}
