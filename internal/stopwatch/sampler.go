package stopwatch

import (
	"sync"
	"time"
)

// DefaultInterval is the sampling period used when none is configured.
const DefaultInterval = 10 * time.Millisecond

// Sampler invokes a callback on a fixed period from its own goroutine until
// cancelled. A Sampler is a single-use handle.
type Sampler struct {
	cancel chan struct{}
	done   chan struct{}
	once   sync.Once
}

// StartSampler starts calling fn every interval. fn must not block.
func StartSampler(interval time.Duration, fn func(time.Time)) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Sampler{
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-s.cancel:
				return
			case t := <-ticker.C:
				select {
				case <-s.cancel:
					return
				default:
				}
				fn(t)
			}
		}
	}()
	return s
}

// Cancel stops the sampler and waits for its goroutine to exit. Once Cancel
// returns, fn is never called again. Only the first call reports true.
func (s *Sampler) Cancel() bool {
	cancelled := false
	s.once.Do(func() {
		close(s.cancel)
		cancelled = true
	})
	<-s.done
	return cancelled
}
