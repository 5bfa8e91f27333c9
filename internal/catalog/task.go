package catalog

import "context"

// Task is the completion handle of an asynchronous catalog operation.
// Completion is broadcast by closing Done, so any number of goroutines
// can wait on the same Task.
type Task struct {
	done chan struct{}
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// completedTask returns a Task that is already finished with err
func completedTask(err error) *Task {
	t := newTask()
	t.finish(err)
	return t
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Done is closed when the operation finished
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the operation error. It is nil until Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the operation finished or ctx is done. Giving up on the
// wait does not cancel the operation.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
