package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout indicates no packet arrived within the receive window.
	ErrTimeout = errors.New("receive timeout")
	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport closed")
)

// ChecksumError indicates a received packet is corrupted.
type ChecksumError struct {
	// Expected is the checksum carried by the packet.
	Expected uint16
	// Actual is the checksum computed over the received bytes.
	Actual uint16
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: packet %04x, computed %04x", e.Expected, e.Actual)
}

// FramingError indicates the received bytes can't be a packet.
type FramingError struct {
	Reason string
}

// Error implements error.
func (e *FramingError) Error() string {
	return "framing error: " + e.Reason
}

// IsChecksumError tests whether err is a ChecksumError.
func IsChecksumError(err error) bool {
	var e *ChecksumError
	return errors.As(err, &e)
}

// IsFramingError tests whether err is a FramingError.
func IsFramingError(err error) bool {
	var e *FramingError
	return errors.As(err, &e)
}
