package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

// Hub is a l1.Registrar for connections coming and going, like
// websocket clients. Every connection gets all events and may send commands.
type Hub struct {
	lock sync.RWMutex
	regs map[*Registrar]struct{}
}

// NewHub creates a Hub.
func NewHub() *Hub {
	return &Hub{regs: make(map[*Registrar]struct{})}
}

// Serve attaches rw to the hub until reading from it fails.
// Commands are posted to the Loop found in ctx.
func (h *Hub) Serve(ctx context.Context, rw PacketReadWriter) error {
	reg := &Registrar{}
	reg.Init(rw)
	h.lock.Lock()
	h.regs[reg] = struct{}{}
	h.lock.Unlock()
	defer func() {
		h.lock.Lock()
		delete(h.regs, reg)
		h.lock.Unlock()
	}()
	return reg.pipe.Run(ctx)
}

// Len returns the number of attached connections.
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.regs)
}

// SendEvent implements l1.Registrar. A connection failing to take the
// event is closed.
func (h *Hub) SendEvent(ctx context.Context, msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		return ErrNotEvent
	}
	h.lock.RLock()
	regs := make([]*Registrar, 0, len(h.regs))
	for reg := range h.regs {
		regs = append(regs, reg)
	}
	h.lock.RUnlock()
	for _, reg := range regs {
		if err := reg.pipe.SendTyped(typed); err != nil {
			glog.V(1).Infof("hub: drop connection: %v", err)
			reg.pipe.Close()
		}
	}
	return nil
}
