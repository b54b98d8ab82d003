package comm

import (
	"context"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1"
)

// DefaultEventQueueSize is used when NewEventQueue gets a non-positive size.
const DefaultEventQueueSize = 64

// EventQueue is a l1.Registrar which never blocks the caller. Events are
// forwarded to Registrar from Run, and the oldest one is dropped when
// the queue is full.
type EventQueue struct {
	Registrar l1.Registrar

	events  chan fx.Message
	dropped uint64
}

// NewEventQueue creates an EventQueue in front of reg.
func NewEventQueue(reg l1.Registrar, size int) *EventQueue {
	if size <= 0 {
		size = DefaultEventQueueSize
	}
	return &EventQueue{Registrar: reg, events: make(chan fx.Message, size)}
}

// SendEvent implements l1.Registrar.
func (q *EventQueue) SendEvent(ctx context.Context, msg fx.Message) error {
	for {
		select {
		case q.events <- msg:
			return nil
		default:
		}
		select {
		case <-q.events:
			if n := atomic.AddUint64(&q.dropped, 1); n == 1 || n%100 == 0 {
				glog.Warningf("event queue full, %d events dropped", n)
			}
		default:
		}
	}
}

// Dropped returns the number of events dropped so far.
func (q *EventQueue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.events)
}

// Run implements Runnable.
func (q *EventQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q.events:
			if err := q.Registrar.SendEvent(ctx, msg); err != nil {
				glog.V(1).Infof("publish: %v", err)
			}
		}
	}
}

// AddToLoop implements LoopAdder.
func (q *EventQueue) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(q)
}
