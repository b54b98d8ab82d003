package mqtt

import (
	"context"
	"io"

	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/comm"
)

const packetQueueSize = 16

// ReadWriter implements PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, packetQueueSize),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// CommandTopic is where the bridge receives commands.
func CommandTopic(ref l1.ControllerRef) string {
	return ref.Name() + "/cmd"
}

// EventTopic is where the bridge publishes events and replies.
func EventTopic(ref l1.ControllerRef) string {
	return ref.Name() + "/msg"
}

// MetaTopic is where the bridge publishes its retained metadata.
func MetaTopic(ref l1.ControllerRef) string {
	return ref.Name() + "/meta"
}

// ForConnector subscribes events and publishes commands.
func (p *ReadWriter) ForConnector(ref l1.ControllerRef) *ReadWriter {
	return p.WithTopics(EventTopic(ref), CommandTopic(ref))
}

// ForController subscribes commands and publishes events.
func (p *ReadWriter) ForController(ref l1.ControllerRef) *ReadWriter {
	return p.WithTopics(CommandTopic(ref), EventTopic(ref))
}

// ReadPacket implements PacketReader. It returns io.EOF once Run exits.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter. It gives up after comm.DefaultWriteTimeout.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	if !token.WaitTimeout(comm.DefaultWriteTimeout) {
		return comm.ErrWriteTimeout
	}
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer sub.Close()
	defer close(p.done)
	<-ctx.Done()
	return ctx.Err()
}

// handleMsg drops packets when the reader falls behind.
func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	default:
	}
}
