package main

import (
	"sync"
	"time"
)

// Watchdog reports a loop that has stopped returning.  It cannot interrupt the
// controller; it only calls onExpire, once per starvation episode, when no
// Feed has arrived within the timeout.  A timeout of zero or less disables it.
type Watchdog struct {
	timeout  time.Duration
	onExpire func(elapsed time.Duration)

	mu       sync.Mutex
	timer    *time.Timer
	lastFeed time.Time
	running  bool
}

// NewWatchdog builds a stopped watchdog.
func NewWatchdog(timeout time.Duration, onExpire func(elapsed time.Duration)) *Watchdog {
	return &Watchdog{timeout: timeout, onExpire: onExpire}
}

// Start arms the watchdog.  Calling Start on a running watchdog is a no-op.
func (w *Watchdog) Start() {
	if w.timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.lastFeed = time.Now()
	w.timer = time.AfterFunc(w.timeout, w.expire)
}

// Feed resets the countdown, re-arming the watchdog if it already fired.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.lastFeed = time.Now()
	w.timer.Reset(w.timeout)
}

// Stop disarms the watchdog.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	w.timer.Stop()
}

func (w *Watchdog) expire() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	elapsed := time.Since(w.lastFeed)
	w.mu.Unlock()
	if w.onExpire != nil {
		w.onExpire(elapsed)
	}
}
