package comm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Packet layout. All fields are little-endian.
const (
	// PacketSize is the fixed size of every packet in both directions.
	PacketSize = 64
	// HeaderSize is the size of the header in front of the payload.
	HeaderSize = 8

	offsetSourcePort = 0
	offsetDestPort   = 2
	offsetLength     = 4
	offsetChecksum   = 6
	offsetLeft       = HeaderSize + 0
	offsetRight      = HeaderSize + 4
)

var le = binary.LittleEndian

// Header is the packet header.
type Header struct {
	SourcePort uint16
	DestPort   uint16
	Length     uint16
	Checksum   uint16
}

// Packet contains the information of a parsed packet.
// Left and Right hold the raw 32-bit payload slots, which carry float32
// rpm targets towards the MCU and int32 encoder counts from it.
type Packet struct {
	Header
	Left  uint32
	Right uint32
}

// NewRPMPacket creates the packet carrying wheel speed targets.
func NewRPMPacket(srcPort, dstPort uint16, rpmLeft, rpmRight float32) *Packet {
	return &Packet{
		Header: Header{SourcePort: srcPort, DestPort: dstPort},
		Left:   math.Float32bits(rpmLeft),
		Right:  math.Float32bits(rpmRight),
	}
}

// NewCountPacket creates the packet carrying encoder counts.
func NewCountPacket(srcPort, dstPort uint16, countLeft, countRight int32) *Packet {
	return &Packet{
		Header: Header{SourcePort: srcPort, DestPort: dstPort},
		Left:   uint32(countLeft),
		Right:  uint32(countRight),
	}
}

// RPM interprets the payload as wheel speed targets.
func (p *Packet) RPM() (left, right float32) {
	return math.Float32frombits(p.Left), math.Float32frombits(p.Right)
}

// Counts interprets the payload as encoder counts.
func (p *Packet) Counts() (left, right int32) {
	return int32(p.Left), int32(p.Right)
}

// Bytes returns encoded bytes for sending. Length and Checksum in the
// header are computed, and p is updated with them.
func (p *Packet) Bytes() []byte {
	b := make([]byte, PacketSize)
	p.Length = PacketSize
	le.PutUint16(b[offsetSourcePort:], p.SourcePort)
	le.PutUint16(b[offsetDestPort:], p.DestPort)
	le.PutUint16(b[offsetLength:], p.Length)
	le.PutUint32(b[offsetLeft:], p.Left)
	le.PutUint32(b[offsetRight:], p.Right)
	p.Checksum = Checksum(b, offsetChecksum)
	le.PutUint16(b[offsetChecksum:], p.Checksum)
	return b
}

// WriteTo implements io.WriterTo.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// ParsePacket validates and decodes a received packet.
// Nothing is read from b unless the size and checksum are right.
func ParsePacket(b []byte) (*Packet, error) {
	if len(b) != PacketSize {
		return nil, &FramingError{Reason: fmt.Sprintf("packet size %d, want %d", len(b), PacketSize)}
	}
	expected := le.Uint16(b[offsetChecksum:])
	if actual := Checksum(b, offsetChecksum); actual != expected {
		return nil, &ChecksumError{Expected: expected, Actual: actual}
	}
	p := &Packet{
		Header: Header{
			SourcePort: le.Uint16(b[offsetSourcePort:]),
			DestPort:   le.Uint16(b[offsetDestPort:]),
			Length:     le.Uint16(b[offsetLength:]),
			Checksum:   expected,
		},
		Left:  le.Uint32(b[offsetLeft:]),
		Right: le.Uint32(b[offsetRight:]),
	}
	if p.Length != PacketSize {
		return nil, &FramingError{Reason: fmt.Sprintf("length field %d, want %d", p.Length, PacketSize)}
	}
	return p, nil
}

// Checksum computes the ones' complement of the sum of little-endian
// 16-bit words in b. The word at offset exclude is skipped, a negative
// exclude covers all of b. A trailing odd byte counts as a low byte.
func Checksum(b []byte, exclude int) uint16 {
	var sum uint16
	for i := 0; i < len(b); i += 2 {
		if i == exclude {
			continue
		}
		w := uint16(b[i])
		if i+1 < len(b) {
			w |= uint16(b[i+1]) << 8
		}
		sum += w
	}
	return ^sum
}
