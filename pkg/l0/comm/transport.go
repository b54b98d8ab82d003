package comm

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Transport exchanges whole packets with the MCU.
type Transport interface {
	io.Closer
	// Send transmits one packet.
	Send([]byte) error
	// Receive waits for one packet for at most timeout.
	// It returns ErrTimeout when nothing arrives, ErrClosed after Close.
	Receive(ctx context.Context, timeout time.Duration) ([]byte, error)
}

// Drainer is implemented by transports which can discard packets
// received but not read yet, like replies arriving after their timeout.
type Drainer interface {
	// Drain discards pending packets and returns how many were dropped.
	Drain() int
}

// Transport kinds.
const (
	KindUDP    = "udp"
	KindSerial = "serial"
)

// UDPConfig configures the datagram transport.
type UDPConfig struct {
	// LocalAddr is the local host:port to bind.
	LocalAddr string
	// RemoteAddr is the MCU host:port.
	RemoteAddr string
}

// SerialConfig configures the serial transport.
type SerialConfig struct {
	Device string
	Baud   int
	// ReadTimeout bounds a single read on the device so the read loop can
	// notice Close.
	ReadTimeout time.Duration
}

// Config selects and configures a transport.
type Config struct {
	Kind   string
	UDP    UDPConfig
	Serial SerialConfig
}

// Open opens the configured transport.
func Open(conf Config) (Transport, error) {
	switch conf.Kind {
	case KindUDP, "":
		return OpenUDP(conf.UDP)
	case KindSerial:
		return OpenSerial(conf.Serial)
	default:
		return nil, fmt.Errorf("unknown transport %q", conf.Kind)
	}
}

func receiveTimer(timeout time.Duration) *time.Timer {
	if timeout <= 0 {
		timeout = time.Nanosecond
	}
	return time.NewTimer(timeout)
}
