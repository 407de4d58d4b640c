package app

import (
	"sync"
	"time"
)

// Ticker calls fn every interval until the returned stop func is called.
// stop must not block: it may be called while fn is waiting on the session lock.
type Ticker func(interval time.Duration, fn func()) (stop func())

// RealTicker is the wall-clock Ticker. A tick racing with stop may still be
// delivered; the session ignores ticks that no longer match its state.
func RealTicker(interval time.Duration, fn func()) func() {
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
