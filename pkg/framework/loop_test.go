package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

type lifecycleCtl struct {
	ControlFunc
	started, stopped bool
	startErr         error
}

func (c *lifecycleCtl) Start(context.Context) error {
	c.started = true
	return c.startErr
}

func (c *lifecycleCtl) Stop(context.Context) {
	c.stopped = true
}

func TestLoopMessages(t *testing.T) {
	loop := NewLoop()
	var got []int
	loop.AddController(StageSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			if m, ok := mc.CurrentMessage().(*testMsg); ok && m.val%2 == 0 {
				got = append(got, m.val)
				mc.MessageTaken()
			}
		}))
		return nil
	}))
	var remains int
	loop.AddController(StageControl, ControlFunc(func(cc ControlContext) error {
		require.Equal(t, StageControl, cc.Stage())
		remains = cc.Messages().Len()
		return nil
	}))

	for i := 1; i <= 5; i++ {
		loop.PostMessage(&testMsg{val: i})
	}
	loop.RunIteration(context.Background())
	require.Equal(t, []int{2, 4}, got)
	require.Equal(t, 3, remains)

	got = nil
	loop.RunIteration(context.Background())
	require.Empty(t, got)
	require.Zero(t, remains)
}

func TestLoopStageOrder(t *testing.T) {
	loop := NewLoop()
	var order []Stage
	record := ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.Stage())
		return nil
	})
	loop.AddController(StagePublish, record)
	loop.AddController(StageSense, record)
	loop.AddController(StageActuate, record)
	loop.AddController(StageControl, ControlFunc(func(cc ControlContext) error {
		order = append(order, cc.Stage())
		return errors.New("ignored")
	}))
	loop.RunIteration(context.Background())
	require.Equal(t, []Stage{StageSense, StageControl, StageActuate, StagePublish}, order)
}

func TestLoopClock(t *testing.T) {
	now := time.Unix(42, 0)
	loop := NewLoop()
	loop.Now = func() time.Time { return now }
	var seen time.Time
	loop.AddController(StageControl, ControlFunc(func(cc ControlContext) error {
		seen = cc.Time()
		return nil
	}))
	loop.RunIteration(context.Background())
	require.Equal(t, now, seen)
}

func TestLoopRunLifecycle(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond
	iterations := make(chan struct{}, 100)
	ctl := &lifecycleCtl{ControlFunc: func(ControlContext) error {
		select {
		case iterations <- struct{}{}:
		default:
		}
		return nil
	}}
	loop.AddController(StageControl, ctl)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	for i := 0; i < 3; i++ {
		select {
		case <-iterations:
		case <-time.After(time.Second):
			t.Fatal("loop not iterating")
		}
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, ctl.started)
	require.True(t, ctl.stopped)
}

func TestLoopStartError(t *testing.T) {
	noop := ControlFunc(func(ControlContext) error { return nil })
	before := &lifecycleCtl{ControlFunc: noop}
	failing := &lifecycleCtl{ControlFunc: noop, startErr: errors.New("boom")}
	after := &lifecycleCtl{ControlFunc: noop}
	loop := NewLoop()
	loop.AddController(StageSense, before)
	loop.AddController(StageControl, failing)
	loop.AddController(StagePublish, after)
	require.EqualError(t, loop.Run(context.Background()), "boom")
	require.True(t, before.started)
	require.True(t, before.stopped)
	require.True(t, failing.stopped)
	require.False(t, after.started)
	require.False(t, after.stopped)
}

func TestLoopStartCanceled(t *testing.T) {
	ctl := &lifecycleCtl{ControlFunc: func(ControlContext) error { return nil }}
	blocking := &blockingStarter{lifecycleCtl: ctl}
	loop := NewLoop()
	loop.AddController(StageControl, blocking)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, loop.Run(ctx))
	require.True(t, ctl.stopped)
}

type blockingStarter struct {
	*lifecycleCtl
}

func (c *blockingStarter) Start(ctx context.Context) error {
	c.started = true
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopTriggerNext(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Hour
	done := make(chan struct{})
	loop.AddController(StageControl, ControlFunc(func(cc ControlContext) error {
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	loop.TriggerNext()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TriggerNext not honored")
	}
}

type ctxRecorder struct {
	ctlCh chan LoopControl
}

func (p *ctxRecorder) Run(ctx context.Context) error {
	p.ctlCh <- LoopCtlFrom(ctx)
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRunnableContext(t *testing.T) {
	loop := NewLoop()
	rec := &ctxRecorder{ctlCh: make(chan LoopControl, 1)}
	loop.AddRunnable(rec)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	select {
	case ctl := <-rec.ctlCh:
		require.True(t, ctl == LoopControl(loop))
	case <-time.After(time.Second):
		t.Fatal("runnable not started")
	}
	require.Nil(t, LoopCtlFrom(context.Background()))
}
