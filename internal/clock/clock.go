// Package clock abstracts periodic callbacks so countdowns can run on virtual time in tests.
package clock

import (
	"sync"
	"time"
)

// Clock schedules repeating callbacks.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval until the returned Timer is stopped.
	Every(interval time.Duration, fn func()) Timer
}

// Timer cancels a repeating callback. Stop is idempotent and safe from inside fn.
type Timer interface {
	Stop()
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) Every(interval time.Duration, fn func()) Timer {
	t := &realTimer{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type realTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *realTimer) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *realTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
