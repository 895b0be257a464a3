package core

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending task per key. Scheduling a key again
// stops the earlier timer before arming the new one.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*debounced
}

type debounced struct {
	timer *time.Timer
	fn    func()
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, pending: make(map[string]*debounced)}
}

func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}
	task := &debounced{fn: fn}
	task.timer = time.AfterFunc(d.delay, func() { d.fire(key, task) })
	d.pending[key] = task
}

// fire runs task unless it was superseded, cancelled or flushed after the
// timer expired.
func (d *Debouncer) fire(key string, task *debounced) {
	d.mu.Lock()
	if d.pending[key] != task {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	task.fn()
}

// Cancel drops the pending task for key and reports whether there was one.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, ok := d.pending[key]
	if !ok {
		return false
	}
	task.timer.Stop()
	delete(d.pending, key)
	return true
}

// Flush runs the pending task for key now, on the calling goroutine.
func (d *Debouncer) Flush(key string) bool {
	d.mu.Lock()
	task, ok := d.pending[key]
	if ok {
		task.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		task.fn()
	}
	return ok
}

// FlushAll runs every pending task and returns how many ran.
func (d *Debouncer) FlushAll() int {
	d.mu.Lock()
	tasks := make([]*debounced, 0, len(d.pending))
	for key, task := range d.pending {
		task.timer.Stop()
		tasks = append(tasks, task)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, task := range tasks {
		task.fn()
	}
	return len(tasks)
}

func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}
