package lifecycle

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/ugparu/paramset/utils/logger"
)

type Runner[T Stepper] struct {
	worker               T
	stop, done           chan struct{}
	startOnce, closeOnce sync.Once
	mu                   sync.Mutex
	err                  error
}

func NewRunner[T Stepper](worker T) *Runner[T] {
	return &Runner[T]{
		worker: worker,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start calls init, if any, and then enters the step loop. A failed init releases the worker.
func (r *Runner[T]) Start(init func(T) error) error {
	select {
	case <-r.stop:
		return ErrStartedAfterClose
	default:
	}

	err := ErrStartedAlready
	r.startOnce.Do(func() {
		logger.Debug(r.worker, "Starting")
		if init != nil {
			if err = init(r.worker); err != nil {
				r.finish(err)
				return
			}
		}
		err = nil
		go r.loop()
	})
	return err
}

func (r *Runner[T]) loop() {
	var err error
	defer func() { r.finish(err) }()

	for {
		if err = r.step(); err == nil {
			continue
		}
		if errors.Is(err, ErrStop) {
			err = nil
		} else {
			logger.Warningf(r.worker, "Stopped on error: %v", err)
		}
		return
	}
}

func (r *Runner[T]) step() (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf(r.worker, "Panic detected! Recovering from: %v", rec)
			logger.Errorf(r.worker, "%s", debug.Stack())
			err = fmt.Errorf("lifecycle: panic: %v", rec)
		}
	}()
	return r.worker.Step(r.stop)
}

func (r *Runner[T]) finish(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	r.worker.Release()
	close(r.done)
}

// Close signals the loop to stop and waits for it. A Step blocked outside the stop channel
// delays Close until it returns.
func (r *Runner[T]) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		r.startOnce.Do(func() { r.finish(nil) })
		<-r.done
	})
}

// Done is closed once the worker has been released.
func (r *Runner[T]) Done() <-chan struct{} {
	return r.done
}

// Err reports why the loop ended: nil for ErrStop or Close, otherwise the failing error.
func (r *Runner[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
