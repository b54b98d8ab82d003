package bridge

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/cugo.go/pkg/drive"
	"github.com/robotalks/cugo.go/pkg/failsafe"
	"github.com/robotalks/cugo.go/pkg/geometry"
	"github.com/robotalks/cugo.go/pkg/l0/comm"
)

// CovarianceSize is the number of elements in a 6x6 covariance matrix.
const CovarianceSize = 36

// Config defines the configuration of the bridge.
type Config struct {
	Geometry drive.Geometry
	// EncoderResolution is counts per wheel revolution.
	EncoderResolution float64
	// EncoderBound is the range of the MCU counter, 2^32 for an int32 counter.
	EncoderBound int64
	// EncoderMaxDelta caps the counts accepted in one cycle.
	EncoderMaxDelta int64

	Transport comm.Config
	// SourcePort and DestPort fill the packet header.
	SourcePort int
	DestPort   int

	// Rate is the control loop frequency in Hz.
	Rate float64
	// RecvTimeout bounds the wait for encoder counts in each cycle.
	RecvTimeout time.Duration
	// HandshakeTimeout bounds the wait for the first encoder counts.
	HandshakeTimeout time.Duration

	Failsafe    failsafe.Config
	InitialPose geometry.Pose2D

	FrameID         string
	ChildFrameID    string
	PoseCovariance  Covariance
	TwistCovariance Covariance
}

// Defaults
const (
	DefaultRate             = 50
	DefaultRecvTimeout      = 15 * time.Millisecond
	DefaultHandshakeTimeout = 2 * time.Second
	DefaultPort             = 8888
)

var defaultConfig = Config{
	Geometry: drive.Geometry{
		WheelRadiusLeft:  0.03858,
		WheelRadiusRight: 0.03858,
		ReductionRatio:   1,
		Tread:            0.376,
	},
	EncoderResolution: 2048,
	EncoderBound:      drive.DefaultCounterBound,
	EncoderMaxDelta:   drive.DefaultMaxDelta,
	Transport: comm.Config{
		Kind: comm.KindUDP,
		UDP: comm.UDPConfig{
			LocalAddr:  ":8888",
			RemoteAddr: "192.168.8.216:8888",
		},
		Serial: comm.SerialConfig{
			Device: "/dev/ttyACM0",
			Baud:   115200,
		},
	},
	SourcePort:       DefaultPort,
	DestPort:         DefaultPort,
	Rate:             DefaultRate,
	RecvTimeout:      DefaultRecvTimeout,
	HandshakeTimeout: DefaultHandshakeTimeout,
	Failsafe:         failsafe.DefaultConfig(),
	FrameID:          "odom",
	ChildFrameID:     "base_link",
	PoseCovariance:   DiagonalCovariance(1e-3, 1e-3, 1e6, 1e6, 1e6, 1e-2),
	TwistCovariance:  DiagonalCovariance(1e-3, 1e-3, 1e6, 1e6, 1e6, 1e-2),
}

func init() {
	if val := os.Getenv("CUGO_TRANSPORT"); val != "" {
		defaultConfig.Transport.Kind = val
	}
	if val := os.Getenv("CUGO_LOCAL_ADDR"); val != "" {
		defaultConfig.Transport.UDP.LocalAddr = val
	}
	if val := os.Getenv("CUGO_REMOTE_ADDR"); val != "" {
		defaultConfig.Transport.UDP.RemoteAddr = val
	}
	if val := os.Getenv("CUGO_SERIAL_DEVICE"); val != "" {
		defaultConfig.Transport.Serial.Device = val
	}
	if val, err := strconv.Atoi(os.Getenv("CUGO_SERIAL_BAUD")); err == nil && val > 0 {
		defaultConfig.Transport.Serial.Baud = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.Float64Var(&c.Geometry.WheelRadiusLeft, "wheel-radius-l", c.Geometry.WheelRadiusLeft, "Left wheel radius (m).")
	flag.Float64Var(&c.Geometry.WheelRadiusRight, "wheel-radius-r", c.Geometry.WheelRadiusRight, "Right wheel radius (m).")
	flag.Float64Var(&c.Geometry.ReductionRatio, "reduction-ratio", c.Geometry.ReductionRatio, "Motor rotations per wheel rotation.")
	flag.Float64Var(&c.Geometry.Tread, "tread", c.Geometry.Tread, "Distance between wheels (m).")
	flag.Float64Var(&c.EncoderResolution, "encoder-resolution", c.EncoderResolution, "Encoder counts per wheel revolution.")
	flag.Int64Var(&c.EncoderBound, "encoder-bound", c.EncoderBound, "Range of the MCU encoder counter, 0 disables overflow correction.")
	flag.Int64Var(&c.EncoderMaxDelta, "encoder-max-delta", c.EncoderMaxDelta, "Maximum counts per cycle, 0 disables the clamp.")

	flag.StringVar(&c.Transport.Kind, "transport", c.Transport.Kind, "Transport to the MCU: udp or serial.")
	flag.StringVar(&c.Transport.UDP.LocalAddr, "local-addr", c.Transport.UDP.LocalAddr, "Local UDP address to bind.")
	flag.StringVar(&c.Transport.UDP.RemoteAddr, "remote-addr", c.Transport.UDP.RemoteAddr, "UDP address of the MCU.")
	flag.StringVar(&c.Transport.Serial.Device, "serial-device", c.Transport.Serial.Device, "Serial device of the MCU.")
	flag.IntVar(&c.Transport.Serial.Baud, "serial-baud", c.Transport.Serial.Baud, "Serial baud rate.")
	flag.IntVar(&c.SourcePort, "source-port", c.SourcePort, "Source port in the packet header.")
	flag.IntVar(&c.DestPort, "dest-port", c.DestPort, "Destination port in the packet header.")

	flag.Float64Var(&c.Rate, "rate", c.Rate, "Control loop rate (Hz).")
	flag.DurationVar(&c.RecvTimeout, "recv-timeout", c.RecvTimeout, "Wait for encoder counts in each cycle.")
	flag.DurationVar(&c.HandshakeTimeout, "handshake-timeout", c.HandshakeTimeout, "Wait for the first encoder counts, 0 skips the handshake.")

	flag.DurationVar(&c.Failsafe.StopMotorTime, "stop-motor-time", c.Failsafe.StopMotorTime, "Stop motors when no command arrives within.")
	flag.IntVar(&c.Failsafe.LinkLostErrors, "link-lost-errors", c.Failsafe.LinkLostErrors, "Consecutive receive errors to stop motors, 0 disables.")
	flag.IntVar(&c.Failsafe.RebaseAfter, "rebase-after", c.Failsafe.RebaseAfter, "Consecutive rejected samples to rebase encoders, 0 disables.")
	flag.Float64Var(&c.Failsafe.LinearAccLimit, "linear-acc-limit", c.Failsafe.LinearAccLimit, "Abnormal translational acceleration (m/s^2).")
	flag.Float64Var(&c.Failsafe.AngularAccLimit, "angular-acc-limit", c.Failsafe.AngularAccLimit, "Abnormal angular acceleration (rad/s^2).")

	flag.Float64Var(&c.InitialPose.X, "initial-x", c.InitialPose.X, "Initial X (m).")
	flag.Float64Var(&c.InitialPose.Y, "initial-y", c.InitialPose.Y, "Initial Y (m).")
	flag.Var((*angleFlag)(&c.InitialPose.Orientation), "initial-yaw", "Initial yaw (rad).")

	flag.StringVar(&c.FrameID, "odom-frame-id", c.FrameID, "Frame ID of odometry.")
	flag.StringVar(&c.ChildFrameID, "odom-child-frame-id", c.ChildFrameID, "Child frame ID of odometry.")
	flag.Var(&c.PoseCovariance, "pose-covariance", "Pose covariance, 36 comma separated values or 6 diagonal values.")
	flag.Var(&c.TwistCovariance, "twist-covariance", "Twist covariance, 36 comma separated values or 6 diagonal values.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.PoseCovariance = append(Covariance(nil), defaultConfig.PoseCovariance...)
	conf.TwistCovariance = append(Covariance(nil), defaultConfig.TwistCovariance...)
	return &conf
}

// Period is the control loop interval.
func (c *Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.Rate)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if c.EncoderResolution <= 0 {
		return fmt.Errorf("encoder resolution must be positive: %v", c.EncoderResolution)
	}
	if c.EncoderBound < 0 || c.EncoderMaxDelta < 0 {
		return errors.New("encoder bound and max delta must not be negative")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive: %v", c.Rate)
	}
	if c.RecvTimeout <= 0 || c.RecvTimeout > c.Period() {
		return fmt.Errorf("recv timeout %v must be within the period %v", c.RecvTimeout, c.Period())
	}
	if c.SourcePort < 0 || c.SourcePort > 0xffff || c.DestPort < 0 || c.DestPort > 0xffff {
		return errors.New("ports must be within 0-65535")
	}
	if len(c.PoseCovariance) != CovarianceSize || len(c.TwistCovariance) != CovarianceSize {
		return fmt.Errorf("covariances must have %d elements", CovarianceSize)
	}
	return nil
}

// NewBridge opens the transport and creates the Bridge.
func (c *Config) NewBridge() (*Bridge, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	t, err := comm.Open(c.Transport)
	if err != nil {
		return nil, err
	}
	return New(*c, t)
}

// MustNewBridge creates the Bridge or fails.
func (c *Config) MustNewBridge() *Bridge {
	b, err := c.NewBridge()
	if err != nil {
		log.Fatalln(err)
	}
	return b
}

// Covariance is a row-major 6x6 matrix over (x, y, z, roll, pitch, yaw).
type Covariance []float64

// DiagonalCovariance creates a Covariance from its diagonal.
func DiagonalCovariance(diag ...float64) Covariance {
	c := make(Covariance, CovarianceSize)
	for i := 0; i < 6 && i < len(diag); i++ {
		c[i*7] = diag[i]
	}
	return c
}

// ParseCovariance parses 36 comma separated values, or 6 as the diagonal.
func ParseCovariance(s string) (Covariance, error) {
	items := strings.Split(s, ",")
	values := make([]float64, 0, len(items))
	for _, item := range items {
		v, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			return nil, fmt.Errorf("covariance: %w", err)
		}
		values = append(values, v)
	}
	switch len(values) {
	case CovarianceSize:
		return values, nil
	case 6:
		return DiagonalCovariance(values...), nil
	default:
		return nil, fmt.Errorf("covariance: expect %d or 6 values, got %d", CovarianceSize, len(values))
	}
}

// String implements flag.Value.
func (c *Covariance) String() string {
	if c == nil {
		return ""
	}
	items := make([]string, len(*c))
	for i, v := range *c {
		items[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(items, ",")
}

// Set implements flag.Value.
func (c *Covariance) Set(s string) error {
	parsed, err := ParseCovariance(s)
	if err == nil {
		*c = parsed
	}
	return err
}

type angleFlag geometry.Angle

func (a *angleFlag) String() string {
	return strconv.FormatFloat(float64(*a), 'g', -1, 64)
}

func (a *angleFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		*a = angleFlag(geometry.AngleFromRadians(v))
	}
	return err
}
