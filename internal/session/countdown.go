package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// countdown is a cancellable repeating callback owned by one PLAYING session.
type countdown struct {
	ticker clockwork.Ticker
	stop   chan struct{}
	once   sync.Once
}

func newCountdown(clock clockwork.Clock, interval time.Duration) *countdown {
	return &countdown{
		ticker: clock.NewTicker(interval),
		stop:   make(chan struct{}),
	}
}

// run invokes onTick once per interval until Cancel is called.
func (c *countdown) run(onTick func()) {
	defer c.ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.ticker.Chan():
			select {
			case <-c.stop:
				return
			default:
			}
			onTick()
		}
	}
}

// Cancel stops future ticks. It never blocks and is safe to call repeatedly.
func (c *countdown) Cancel() {
	c.once.Do(func() {
		close(c.stop)
	})
}
