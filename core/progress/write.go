package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/nxtwiseedu/nxtwise-lms/core"
)

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Write is the outcome of an asynchronous persistence task.
// A nil *Write means no write was issued; all its methods are safe to call.
type Write struct {
	done chan struct{}
	err  error
}

func newWrite() *Write {
	return &Write{done: make(chan struct{})}
}

func (w *Write) finish(err error) {
	w.err = err
	close(w.done)
}

// Done is closed once the write has completed (successfully or not).
func (w *Write) Done() <-chan struct{} {
	if w == nil {
		return closedCh
	}
	return w.done
}

// Err returns the write's error once it completed, nil before.
func (w *Write) Err() error {
	if w == nil {
		return nil
	}
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Wait blocks until the write completed or ctx is done.
// Giving up on the wait does not cancel the write.
func (w *Write) Wait(ctx context.Context) error {
	if w == nil {
		return nil
	}
	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type task struct {
	name string
	args []interface{} // extra logger args
	fn   func(ctx context.Context) error
	w    *Write
}

// writer runs persistence tasks one at a time, in submission order.
// A task only starts once the previous one finished, so it always reads the
// remote state produced by its predecessors.
type writer struct {
	mu      sync.Mutex
	queue   []task
	running bool
	logger  core.Logger
}

func newWriter(logger core.Logger) *writer {
	return &writer{logger: logger}
}

func (wr *writer) enqueue(name string, args []interface{}, fn func(ctx context.Context) error) *Write {
	w := newWrite()
	wr.mu.Lock()
	wr.queue = append(wr.queue, task{name: name, args: args, fn: fn, w: w})
	if !wr.running {
		wr.running = true
		go wr.run()
	}
	wr.mu.Unlock()
	return w
}

func (wr *writer) run() {
	// writes outlive the request that triggered them
	ctx := context.Background()
	for {
		wr.mu.Lock()
		if len(wr.queue) == 0 {
			wr.running = false
			wr.mu.Unlock()
			return
		}
		t := wr.queue[0]
		wr.queue = wr.queue[1:]
		wr.mu.Unlock()

		err := t.fn(ctx)
		if err != nil {
			wr.logger.Error(fmt.Sprintf("progress: %s failed: %v", t.name, err), append([]interface{}{err}, t.args...)...)
		}
		t.w.finish(err)
	}
}

// drain waits for every task enqueued so far.
func (wr *writer) drain(ctx context.Context) error {
	return wr.enqueue("drain", nil, func(context.Context) error { return nil }).Wait(ctx)
}
