package comm

import (
	"container/list"
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/l1"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 1 * time.Second

const eventQueueSize = 16

// ControllerConn provides base implementation for l1.ControllerConn using Pipe.
type ControllerConn struct {
	Expiration time.Duration

	pipe     Pipe
	seq      uint32
	commands list.List
	seqMap   map[uint32]*commandFuture
	events   chan fx.Message
	lock     sync.Mutex
}

// Init initializes ControllerConn with defaults.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.seqMap = make(map[uint32]*commandFuture)
	c.events = make(chan fx.Message, eventQueueSize)
}

// DoCommand implements ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.seq++; c.seq == 0 {
		c.seq++
	}
	f := &commandFuture{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan l1.Result, 1),
	}
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.result <- l1.Result{Err: err}
		close(f.result)
		return f
	}
	f.elem = c.commands.PushBack(f)
	c.seqMap[f.seq] = f
	return f
}

// Events implements ControllerConn. Events are dropped if not consumed in time.
func (c *ControllerConn) Events() <-chan fx.Message {
	return c.events
}

// Run implements Runnable.
func (c *ControllerConn) Run(ctx context.Context) error {
	runner := NewConnRunner(ctx, c.pipe.ReadWriter)
	errCh := make(chan error, 1)
	go func() { errCh <- c.pipe.Run(ctx) }()

	interval := c.Expiration / 4
	if interval <= 0 {
		interval = DefaultCommandExpiration / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.pipe.Close()
			<-errCh
			runner.Wait()
			c.expire(time.Time{}, context.Canceled)
			return ctx.Err()
		case err := <-errCh:
			runner.Cancel()
			c.expire(time.Time{}, err)
			return err
		case now := <-ticker.C:
			c.expire(now, context.DeadlineExceeded)
		}
	}
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		select {
		case c.events <- msg:
		default:
		}
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.seqMap[typed.Sequence]
	if f == nil {
		return nil
	}
	c.commands.Remove(f.elem)
	delete(c.seqMap, typed.Sequence)
	result := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.result <- result
	close(f.result)
	return nil
}

// expire fails commands expiring before now, or all of them when now is zero.
func (c *ControllerConn) expire(now time.Time, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for c.commands.Len() > 0 {
		elem := c.commands.Front()
		f := elem.Value.(*commandFuture)
		if !now.IsZero() && f.expireAt.After(now) {
			break
		}
		c.commands.Remove(elem)
		delete(c.seqMap, f.seq)
		if err == nil {
			err = context.Canceled
		}
		f.result <- l1.Result{Err: err}
		close(f.result)
	}
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan l1.Result
}

func (c *commandFuture) ResultChan() <-chan l1.Result {
	return c.result
}

// ConnRunner runs the PacketReadWriter if it's a Runnable.
type ConnRunner struct {
	cancel func()
	done   chan struct{}
}

// NewConnRunner starts rw in background if it's a Runnable.
func NewConnRunner(ctx context.Context, rw PacketReadWriter) *ConnRunner {
	r := &ConnRunner{cancel: func() {}, done: make(chan struct{})}
	runnable, ok := rw.(fx.Runnable)
	if !ok {
		close(r.done)
		return r
	}
	ctx, r.cancel = context.WithCancel(ctx)
	go func() {
		defer close(r.done)
		runnable.Run(ctx)
	}()
	return r
}

// Cancel stops the runnable and waits.
func (r *ConnRunner) Cancel() {
	r.cancel()
	<-r.done
}

// Wait waits the runnable to stop.
func (r *ConnRunner) Wait() {
	<-r.done
}
