package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Callbacks fire synchronously inside Advance,
// in the order their deadlines fall.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	entries []*fakeTimer
}

// NewFake returns a Fake starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(interval time.Duration, fn func()) Timer {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		clock:    f,
		id:       f.seq,
		interval: interval,
		next:     f.now.Add(interval),
		fn:       fn,
	}
	f.entries = append(f.entries, t)
	return t
}

// Active returns the number of timers that have not been stopped.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Advance moves the clock forward by d, firing every callback that falls due.
// The lock is released while a callback runs, so callbacks may stop timers or
// register new ones.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.nextDue(target)
		if t == nil {
			break
		}
		f.now = t.next
		t.next = t.next.Add(t.interval)
		fn := t.fn
		f.mu.Unlock()
		fn()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

func (f *Fake) nextDue(target time.Time) *fakeTimer {
	var due *fakeTimer
	for _, t := range f.entries {
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.id < due.id) {
			due = t
		}
	}
	return due
}

func (f *Fake) remove(t *fakeTimer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e == t {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return
		}
	}
}

type fakeTimer struct {
	clock    *Fake
	id       int
	interval time.Duration
	next     time.Time
	fn       func()
}

func (t *fakeTimer) Stop() {
	t.clock.remove(t)
}
