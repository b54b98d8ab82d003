package comm

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"
)

const (
	// DefaultSerialReadTimeout is used when SerialConfig.ReadTimeout is unset.
	DefaultSerialReadTimeout = 50 * time.Millisecond

	serialQueueSize   = 8
	serialReadBufSize = 256
	serialRetryDelay  = 10 * time.Millisecond
)

// Serial is the byte stream transport. Packets are COBS framed.
type Serial struct {
	port io.ReadWriteCloser

	writeLock sync.Mutex
	frames    chan ParseResult
	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// OpenSerial opens the serial device.
func OpenSerial(conf SerialConfig) (*Serial, error) {
	timeout := conf.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultSerialReadTimeout
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        conf.Device,
		Baud:        conf.Baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", conf.Device, err)
	}
	return NewSerial(port), nil
}

// NewSerial wraps an opened byte stream and starts reading from it.
func NewSerial(port io.ReadWriteCloser) *Serial {
	s := &Serial{
		port:   port,
		frames: make(chan ParseResult, serialQueueSize),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Send implements Transport.
func (s *Serial) Send(b []byte) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	_, err := s.port.Write(Frame(b))
	return err
}

// Receive implements Transport. A frame which failed to decode is
// reported as a FramingError.
func (s *Serial) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	timer := receiveTimer(timeout)
	defer timer.Stop()
	select {
	case pr := <-s.frames:
		return pr.Frame, pr.Err
	case <-s.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Close implements io.Closer.
func (s *Serial) Close() (err error) {
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.port.Close()
		<-s.done
	})
	return
}

// Drain implements Drainer.
func (s *Serial) Drain() (n int) {
	for {
		select {
		case <-s.frames:
			n++
		default:
			return
		}
	}
}

func (s *Serial) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Serial) readLoop() {
	defer close(s.done)
	var parser Parser
	buf := make([]byte, serialReadBufSize)
	for {
		n, err := s.port.Read(buf)
		for _, pr := range parser.ParseBytes(buf[:n]) {
			s.enqueue(pr)
		}
		if s.isClosed() {
			return
		}
		switch {
		case err == nil, os.IsTimeout(err):
		case err == io.EOF:
			time.Sleep(serialRetryDelay)
		default:
			glog.Warningf("serial: read error: %v", err)
			time.Sleep(serialRetryDelay)
		}
	}
}

// enqueue drops the oldest queued frame when the receiver falls behind.
func (s *Serial) enqueue(pr ParseResult) {
	for {
		select {
		case s.frames <- pr:
			return
		default:
		}
		select {
		case <-s.frames:
			glog.V(2).Info("serial: receive queue full, dropped oldest frame")
		default:
		}
	}
}
