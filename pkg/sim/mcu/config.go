package mcu

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/cugo.go/pkg/l0/comm"
)

// Config defines the configuration of the simulated MCU.
type Config struct {
	Transport         comm.Config
	EncoderResolution float64
	ReductionRatio    float64
	// Accel is the motor acceleration in rpm/s.
	Accel        float64
	InitialLeft  int
	InitialRight int
	StopAfter    time.Duration
	Faults       Faults
}

var defaultConfig = Config{
	Transport: comm.Config{
		Kind: comm.KindUDP,
		UDP: comm.UDPConfig{
			LocalAddr:  "127.0.0.1:8888",
			RemoteAddr: "127.0.0.1:8889",
		},
		Serial: comm.SerialConfig{Baud: 115200},
	},
	EncoderResolution: 2048,
	ReductionRatio:    1,
	Accel:             600,
	StopAfter:         time.Second,
}

func init() {
	if val := os.Getenv("CUGO_SIM_LOCAL_ADDR"); val != "" {
		defaultConfig.Transport.UDP.LocalAddr = val
	}
	if val := os.Getenv("CUGO_SIM_REMOTE_ADDR"); val != "" {
		defaultConfig.Transport.UDP.RemoteAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.Transport.Kind, "transport", c.Transport.Kind, "Transport to the bridge: udp or serial.")
	flag.StringVar(&c.Transport.UDP.LocalAddr, "local-addr", c.Transport.UDP.LocalAddr, "Local UDP address to bind.")
	flag.StringVar(&c.Transport.UDP.RemoteAddr, "remote-addr", c.Transport.UDP.RemoteAddr, "UDP address of the bridge.")
	flag.StringVar(&c.Transport.Serial.Device, "serial-device", c.Transport.Serial.Device, "Serial device, e.g. one end of a pty pair.")
	flag.IntVar(&c.Transport.Serial.Baud, "serial-baud", c.Transport.Serial.Baud, "Serial baud rate.")
	flag.Float64Var(&c.EncoderResolution, "encoder-resolution", c.EncoderResolution, "Encoder counts per wheel revolution.")
	flag.Float64Var(&c.ReductionRatio, "reduction-ratio", c.ReductionRatio, "Motor rotations per wheel rotation.")
	flag.Float64Var(&c.Accel, "accel", c.Accel, "Motor acceleration (rpm/s), 0 for immediate.")
	flag.IntVar(&c.InitialLeft, "initial-left", c.InitialLeft, "Initial left counter.")
	flag.IntVar(&c.InitialRight, "initial-right", c.InitialRight, "Initial right counter.")
	flag.DurationVar(&c.StopAfter, "stop-after", c.StopAfter, "Stop motors when commands stop for, 0 disables.")
	flag.IntVar(&c.Faults.DropEvery, "drop-every", c.Faults.DropEvery, "Drop every Nth reply, 0 disables.")
	flag.IntVar(&c.Faults.CorruptEvery, "corrupt-every", c.Faults.CorruptEvery, "Corrupt every Nth reply, 0 disables.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewMCU creates the MCU.
func (c *Config) NewMCU() *MCU {
	m := New(c.EncoderResolution, c.ReductionRatio, c.Accel, int32(c.InitialLeft), int32(c.InitialRight))
	m.Faults = c.Faults
	return m
}
