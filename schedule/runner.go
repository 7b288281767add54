// Package schedule batches bursts of work into bounded passes.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is one submitted action.
type Task struct {
	fn       func()
	key      string
	done     chan struct{}
	executed atomic.Bool
}

// Done is closed once the task has run or has been discarded.
func (t *Task) Done() <-chan struct{} { return t.done }

// Executed reports whether the action ran. It is final once Done is closed.
func (t *Task) Executed() bool { return t.executed.Load() }

func (t *Task) finish(ran bool) {
	t.executed.Store(ran)
	close(t.done)
}

// Runner coalesces submitted actions and runs them in passes. A pass starts
// when Count actions are pending or Span has elapsed since the oldest
// pending submission, whichever comes first. At most one pass runs at a
// time; actions submitted during a pass wait for the next one.
//
// Count below one is treated as one. A zero Span disables the interval.
// The zero Runner runs every action in its own pass.
type Runner struct {
	Count int
	Span  time.Duration

	mu      sync.Mutex
	pending []*Task
	keys    map[string]*Task
	first   time.Time
	timer   *time.Timer
	gen     uint64
	running bool
	closed  bool
}

// Send submits fn.
func (r *Runner) Send(fn func()) *Task {
	return r.submit("", fn)
}

// SendKey submits fn under key. A pending action with the same key is
// replaced and reported as not executed.
func (r *Runner) SendKey(key string, fn func()) *Task {
	return r.submit(key, fn)
}

// Close discards pending actions. A pass already running completes.
// Later submissions are discarded at once.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.stopTimerLocked()
	dropped := r.takeLocked()
	r.mu.Unlock()

	for _, t := range dropped {
		t.finish(false)
	}
}

func (r *Runner) submit(key string, fn func()) *Task {
	t := &Task{fn: fn, key: key, done: make(chan struct{})}

	r.mu.Lock()
	if r.closed || fn == nil {
		r.mu.Unlock()
		t.finish(false)
		return t
	}

	var replaced *Task
	if key != "" {
		if r.keys == nil {
			r.keys = make(map[string]*Task)
		}
		if old, ok := r.keys[key]; ok {
			replaced = old
			r.removeLocked(old)
		}
		r.keys[key] = t
	}
	if len(r.pending) == 0 {
		r.first = time.Now()
	}
	r.pending = append(r.pending, t)

	start := r.scheduleLocked()
	r.mu.Unlock()

	if replaced != nil {
		replaced.finish(false)
	}
	if start {
		go r.run()
	}
	return t
}

func (r *Runner) count() int {
	if r.Count < 1 {
		return 1
	}
	return r.Count
}

// scheduleLocked reports whether a pass must start now, arming the
// interval timer otherwise.
func (r *Runner) scheduleLocked() bool {
	if r.running || len(r.pending) == 0 {
		return false
	}
	if len(r.pending) >= r.count() {
		r.stopTimerLocked()
		r.running = true
		return true
	}
	if r.Span <= 0 || r.timer != nil {
		return false
	}
	wait := r.Span - time.Since(r.first)
	if wait <= 0 {
		r.running = true
		return true
	}
	gen := r.gen
	r.timer = time.AfterFunc(wait, func() { r.fire(gen) })
	return false
}

func (r *Runner) fire(gen uint64) {
	r.mu.Lock()
	if gen != r.gen {
		r.mu.Unlock()
		return
	}
	r.timer = nil
	if r.closed || r.running || len(r.pending) == 0 {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.run()
}

func (r *Runner) run() {
	for {
		r.mu.Lock()
		if r.closed {
			r.running = false
			r.mu.Unlock()
			return
		}
		batch := r.takeLocked()
		r.mu.Unlock()

		for _, t := range batch {
			t.fn()
			t.finish(true)
		}

		r.mu.Lock()
		r.running = false
		again := !r.closed && r.scheduleLocked()
		r.mu.Unlock()
		if !again {
			return
		}
	}
}

func (r *Runner) takeLocked() []*Task {
	batch := r.pending
	r.pending = nil
	r.keys = nil
	r.stopTimerLocked()
	return batch
}

func (r *Runner) removeLocked(t *Task) {
	for i, p := range r.pending {
		if p == t {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

func (r *Runner) stopTimerLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
