package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Runner.Wait when a second stop signal
// arrives before all Runnables stopped.
var ErrForcedExit = errors.New("forced exit")

// Runner runs Runnables in their own goroutines. The first Runnable
// failing with an error other than context.Canceled cancels the others.
type Runner struct {
	Context context.Context

	cancel  func()
	started int
	errCh   chan error
	exitCh  chan struct{}
}

// NewRunner creates a Runner deriving its context from ctx.
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		errCh:  make(chan error, 1),
		exitCh: make(chan struct{}),
	}
	r.Context, r.cancel = context.WithCancel(ctx)
	return r
}

// HandleSignals cancels the Runner on SIGINT or SIGTERM. A second signal
// makes Wait return immediately.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
		case <-r.Context.Done():
			return
		}
		glog.Info("stop requested")
		r.cancel()
		select {
		case <-sigCh:
			glog.Error("stop requested again, force exit")
			close(r.exitCh)
		case <-r.exitCh:
		}
	}()
	return r
}

// Go starts runnables.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		r.started++
		glog.V(4).Infof("start %T", runnable)
		go func(runnable Runnable) {
			err := runnable.Run(r.Context)
			glog.V(4).Infof("%T stopped: %v", runnable, err)
			r.errCh <- err
		}(runnable)
	}
	return r
}

// Wait waits until all started Runnables stop and aggregates their errors.
// context.Canceled is not an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for ; r.started > 0; r.started-- {
		select {
		case <-r.exitCh:
			return ErrForcedExit
		case err := <-r.errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				errs.Add(err)
				r.cancel()
			}
		}
	}
	r.cancel()
	return errs.Aggregate()
}

// RunAll runs runnables until all of them stop or a stop signal arrives.
func RunAll(ctx context.Context, runnables ...Runnable) error {
	return NewRunner(ctx).HandleSignals().Go(runnables...).Wait()
}

// RunWithContextCancel runs fn which doesn't accept a context.
// onCancel is called when ctx is done and must make fn return;
// the error is ctx.Err() then.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		onCancel()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// RunWithContextCloser runs fn and closes closer exactly once, either
// when ctx is done to unblock fn or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var closed bool
	err := RunWithContextCancel(ctx, func() {
		closer.Close()
		closed = true
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
