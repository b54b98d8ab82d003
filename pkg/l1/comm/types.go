package comm

import (
	"errors"
	"time"
)

// DefaultWriteTimeout bounds a single packet write on a port.
const DefaultWriteTimeout = time.Second

// ErrWriteTimeout indicates a packet was not written within the write timeout.
var ErrWriteTimeout = errors.New("write timeout")

// PacketReader reads one packet at a time.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes one packet at a time.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter is a packet oriented link.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
