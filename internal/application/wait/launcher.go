package wait

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Task is the handle of a detached operation
type Task struct {
	done chan struct{}
	err  error
}

// Done is closed when the operation returns
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the operation's error once Done is closed
func (t *Task) Err() error {
	<-t.done
	return t.err
}

// Launcher runs operations nobody awaits and forwards their faults.
//
// Any error other than a cancellation is sent to the fault channel. If the
// channel is full the fault is logged at error level rather than lost.
type Launcher struct {
	faults chan error
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewLauncher creates a launcher whose fault channel buffers up to buffer faults
func NewLauncher(buffer int, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		faults: make(chan error, buffer),
		logger: logger,
	}
}

// Faults returns the channel unhandled faults are reported on
func (l *Launcher) Faults() <-chan error {
	return l.faults
}

// FireAndForget starts op in its own goroutine and returns immediately
func (l *Launcher) FireAndForget(op func() error) *Task {
	task := &Task{done: make(chan struct{})}
	l.wg.Add(1)

	go func() {
		defer l.wg.Done()
		defer close(task.done)

		task.err = op()
		if task.err == nil || IsCancellation(task.err) {
			return
		}
		select {
		case l.faults <- task.err:
		default:
			l.logger.Error("unhandled fault dropped", "error", task.err)
		}
	}()

	return task
}

// Wait blocks until every launched operation has returned
func (l *Launcher) Wait() {
	l.wg.Wait()
}

// IsCancellation reports whether err only signals a cancelled context
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
