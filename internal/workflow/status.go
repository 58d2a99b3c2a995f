package workflow

import (
	"sync"
	"time"
)

// Cosmetic status phrases shown while a generation call is in flight. They
// carry no meaning for correctness; the rotation wraps around and is stopped
// the moment the call settles.
var designStatusMessages = []string{
	"Warming up the design studio...",
	"Sketching concepts...",
	"Choosing a color palette...",
	"Refining the shapes...",
	"Polishing the final mark...",
}

var animateStatusMessages = []string{
	"Storyboarding the motion...",
	"Setting keyframes...",
	"Rendering frames...",
	"Timing the movement...",
	"Adding the finishing touches...",
}

const (
	defaultDesignTick  = 3 * time.Second
	defaultAnimateTick = 4 * time.Second
)

// rotateStatus shows the first message immediately, then advances through the
// list on every tick, wrapping. The returned stop function is idempotent and
// only returns once the rotation goroutine has exited, so no status write can
// race past it.
func (c *Controller) rotateStatus(messages []string, interval time.Duration) (stop func()) {
	c.setStatus(messages[0])

	done := make(chan struct{})
	exited := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				i = (i + 1) % len(messages)
				c.setStatus(messages[i])
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
		<-exited
	}
}

func (c *Controller) setStatus(message string) {
	c.mu.Lock()
	c.state.StatusMessage = message
	c.mu.Unlock()
}
