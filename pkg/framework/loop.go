package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is used when Loop.Interval is not set.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers periodically, stage by stage.
type Loop struct {
	Interval time.Duration
	// Now is the clock of the loop, time.Now if nil.
	Now func() time.Time

	stages  [Stages][]Controller
	runners []Runnable

	messages messageList
	lock     sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx      context.Context
	time     time.Time
	stage    Stage
	messages messageList
}

type messageList struct {
	head *messageItem
	tail *messageItem
}

type messageItem struct {
	msg  Message
	next *messageItem
}

func (l *messageList) append(item *messageItem) {
	item.next = nil
	if l.head == nil {
		l.head = item
	} else {
		l.tail.next = item
	}
	l.tail = item
}

func (l *messageList) splice(src *messageList) {
	l.head, l.tail = src.head, src.tail
	src.head, src.tail = nil, nil
}

func (l *messageList) len() (n int) {
	for item := l.head; item != nil; item = item.next {
		n++
	}
	return
}

type loopCtlKey struct{}

// WithLoopCtl attaches a LoopControl to the context.
func WithLoopCtl(ctx context.Context, ctl LoopControl) context.Context {
	return context.WithValue(ctx, loopCtlKey{}, ctl)
}

// LoopCtlFrom gets the LoopControl attached to the context. Runnables
// started by a Loop always find their Loop there.
func LoopCtlFrom(ctx context.Context) LoopControl {
	ctl, _ := ctx.Value(loopCtlKey{}).(LoopControl)
	return ctl
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a stage. Controllers which
// are also Runnable are started with the loop.
func (l *Loop) AddController(stage Stage, ctls ...Controller) *Loop {
	l.stages[stage] = append(l.stages[stage], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

func (l *Loop) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loop) eachController(fn func(Controller)) {
	for _, ctls := range l.stages {
		for _, ctl := range ctls {
			fn(ctl)
		}
	}
}

// Run implements Runnable. Starters are invoked before the first
// iteration and Stoppers after the last one.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	// Controllers reached before a failed Start are stopped too,
	// including the one which failed.
	var started []Controller
	defer func() {
		for _, ctl := range started {
			if s, ok := ctl.(Stopper); ok {
				s.Stop(context.Background())
			}
		}
	}()
	var startErr error
	l.eachController(func(ctl Controller) {
		if startErr != nil {
			return
		}
		started = append(started, ctl)
		if s, ok := ctl.(Starter); ok {
			startErr = s.Start(ctx)
		}
	})
	if startErr != nil {
		return startErr
	}

	runner := NewRunner(WithLoopCtl(ctx, l))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.RunIteration(ctx)
		case <-l.wakeUpCh:
			l.RunIteration(ctx)
		}
	}
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.messages.append(&messageItem{msg: msg})
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// RunIteration runs all controllers once with the messages posted so far.
// Messages not taken by any controller are dropped.
func (l *Loop) RunIteration(ctx context.Context) {
	iter := &loopIteration{Loop: l, ctx: ctx, time: l.now()}
	l.lock.Lock()
	iter.messages.splice(&l.messages)
	l.lock.Unlock()
	for stage, ctls := range l.stages {
		iter.stage = Stage(stage)
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error at stage %d: %v", stage, err)
			}
		}
	}
	if n := iter.messages.len(); n > 0 {
		glog.V(3).Infof("dropped %d unprocessed messages", n)
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Stage() Stage {
	return t.stage
}

func (t *loopIteration) Messages() MessageStore {
	return t
}

type messageContext struct {
	item  *messageItem
	taken bool
}

func (c *messageContext) CurrentMessage() Message { return c.item.msg }
func (c *messageContext) MessageTaken()           { c.taken = true }

func (t *loopIteration) ProcessMessages(proc MessageProcessor) {
	var msgs, remains messageList
	msgs.splice(&t.messages)
	for msgs.head != nil {
		mctx := &messageContext{item: msgs.head}
		msgs.head = msgs.head.next
		proc.ProcessMessage(mctx)
		if !mctx.taken {
			remains.append(mctx.item)
		}
	}
	t.messages = remains
}

func (t *loopIteration) Len() int {
	return t.messages.len()
}
