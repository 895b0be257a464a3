package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_RunsOnlyLastTask(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var mu sync.Mutex
	var ran []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		d.Schedule("k", func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != 3 {
		t.Errorf("ran = %v, want [3]", ran)
	}
}

func TestDebouncer_KeysAreIndependent(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var a, b atomic.Int32
	d.Schedule("a", func() { a.Add(1) })
	d.Schedule("b", func() { b.Add(1) })

	if !d.Flush("a") {
		t.Fatal("Flush(a) = false")
	}
	if a.Load() != 1 || b.Load() != 0 {
		t.Errorf("a = %d, b = %d, want 1 and 0", a.Load(), b.Load())
	}
	if !d.Pending("b") || d.Pending("a") {
		t.Errorf("Pending(a) = %v, Pending(b) = %v", d.Pending("a"), d.Pending("b"))
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Schedule("k", func() { calls.Add(1) })

	if !d.Cancel("k") {
		t.Fatal("Cancel() = false for a pending key")
	}
	if d.Cancel("k") {
		t.Error("Cancel() = true for a key with nothing pending")
	}
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("cancelled task ran %d times", calls.Load())
	}
}

func TestDebouncer_FlushRunsOnce(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var calls atomic.Int32
	d.Schedule("k", func() { calls.Add(1) })

	d.Flush("k")
	if d.Flush("k") {
		t.Error("second Flush() found a pending task")
	}
	time.Sleep(40 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("task ran %d times, want 1", calls.Load())
	}
}

func TestDebouncer_FlushAll(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var calls atomic.Int32
	for _, key := range []string{"a", "b", "c"} {
		d.Schedule(key, func() { calls.Add(1) })
	}
	d.Schedule("a", func() { calls.Add(10) })

	if n := d.FlushAll(); n != 3 {
		t.Errorf("FlushAll() = %d, want 3", n)
	}
	if calls.Load() != 12 {
		t.Errorf("calls = %d, want 12", calls.Load())
	}
}
