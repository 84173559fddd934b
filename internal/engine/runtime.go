package engine

import (
	"sync"
	"sync/atomic"
)

// Runtime is a cooperative task queue. Work submitted with Spawn does not run
// until some goroutine drives the runtime with BlockOn; tasks then run on that
// goroutine in submission order. Only one goroutine may drive a runtime at a
// time.
type Runtime struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	driving atomic.Bool
}

func NewRuntime() *Runtime {
	return &Runtime{}
}

func (rt *Runtime) submit(task func()) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.closed {
		return false
	}
	rt.queue = append(rt.queue, task)
	return true
}

func (rt *Runtime) pop() (func(), bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.queue) == 0 {
		return nil, false
	}
	task := rt.queue[0]
	rt.queue = rt.queue[1:]
	return task, true
}

// Close discards queued work. Futures of tasks that never ran resolve with
// ErrRuntimeClosed.
func (rt *Runtime) Close() {
	rt.mu.Lock()
	if rt.closed {
		rt.mu.Unlock()
		return
	}
	rt.closed = true
	pending := rt.queue
	rt.queue = nil
	rt.mu.Unlock()

	for _, task := range pending {
		task()
	}
}

func (rt *Runtime) isClosed() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.closed
}

// Future is the eventual result of a task spawned on a Runtime.
type Future[T any] struct {
	done     chan struct{}
	val      T
	err      error
	panicked bool
	panicVal any
}

// Ready reports whether the task has finished.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Spawn schedules fn on rt. A panic inside fn is captured and re-raised by
// BlockOn in the goroutine waiting for this future.
func Spawn[T any](rt *Runtime, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}

	task := func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.panicked = true
				f.panicVal = r
			}
		}()
		if rt.isClosed() {
			f.err = ErrRuntimeClosed.New()
			return
		}
		f.val, f.err = fn()
	}
	if !rt.submit(task) {
		f.err = ErrRuntimeClosed.New()
		close(f.done)
	}
	return f
}

// BlockOn drives rt on the calling goroutine until f resolves. Calling it
// while rt is already being driven, for example from inside a task, fails
// with ErrNestedRuntime instead of deadlocking.
func BlockOn[T any](rt *Runtime, f *Future[T]) (T, error) {
	var zero T
	if !rt.driving.CompareAndSwap(false, true) {
		return zero, ErrNestedRuntime.New()
	}

	for !f.Ready() {
		task, ok := rt.pop()
		if !ok {
			break
		}
		task()
	}
	rt.driving.Store(false)

	// f was not spawned on rt; its own driver resolves it
	<-f.done
	if f.panicked {
		panic(f.panicVal)
	}
	return f.val, f.err
}
