package app

import (
	"sync"
	"time"
)

// Debouncer delays a call per key until no new call for that key arrived
// for the configured delay. Each Trigger resets the timer and replaces the
// pending call, so only the trailing call runs.
type Debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingCall
}

type pendingCall struct {
	timer *time.Timer
	fn    func()
	done  bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*pendingCall),
	}
}

// Trigger schedules fn for key and reports whether it replaced a pending call.
func (d *Debouncer) Trigger(key string, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if call, ok := d.pending[key]; ok && !call.done && call.timer.Stop() {
		call.fn = fn
		call.timer.Reset(d.delay)
		return true
	}

	call := &pendingCall{fn: fn}
	call.timer = time.AfterFunc(d.delay, func() { d.fire(key, call) })
	d.pending[key] = call
	return false
}

// Flush runs the pending call for key immediately, if there is one.
func (d *Debouncer) Flush(key string) bool {
	fn := d.take(key)
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops the pending call for key without running it.
func (d *Debouncer) Cancel(key string) bool {
	return d.take(key) != nil
}

// FlushAll runs every pending call; used when the owner goes away.
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	keys := make([]string, 0, len(d.pending))
	for key := range d.pending {
		keys = append(keys, key)
	}
	d.mu.Unlock()

	for _, key := range keys {
		d.Flush(key)
	}
}

// Pending reports whether a call for key is waiting.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	call, ok := d.pending[key]
	return ok && !call.done
}

func (d *Debouncer) take(key string) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	call, ok := d.pending[key]
	if !ok || call.done {
		return nil
	}
	call.timer.Stop()
	call.done = true
	delete(d.pending, key)
	return call.fn
}

func (d *Debouncer) fire(key string, call *pendingCall) {
	d.mu.Lock()
	if call.done {
		d.mu.Unlock()
		return
	}
	call.done = true
	if d.pending[key] == call {
		delete(d.pending, key)
	}
	fn := call.fn
	d.mu.Unlock()
	fn()
}
