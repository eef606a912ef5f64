package session

import (
	"context"
	"time"

	"codeduel/internal/model"

	"github.com/rs/zerolog/log"
)

// RunReaper periodically drops sessions that are not playing, hold no
// participants and have been idle longer than idleTimeout. It returns when
// ctx is done.
func (c *Coordinator) RunReaper(ctx context.Context, idleTimeout time.Duration) {
	if idleTimeout <= 0 {
		return
	}

	ticker := c.clock.NewTicker(idleTimeout / 2)
	defer ticker.Stop()

	log.Info().Dur("idle_timeout", idleTimeout).Msg("session reaper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session reaper shutting down")
			return
		case <-ticker.Chan():
			if n := c.ReapIdle(idleTimeout); n > 0 {
				log.Info().Int("reaped", n).Msg("removed idle sessions")
			}
		}
	}
}

// ReapIdle removes idle empty sessions once and returns how many were dropped.
func (c *Coordinator) ReapIdle(idleTimeout time.Duration) int {
	cutoff := c.clock.Now().Add(-idleTimeout)
	reaped := 0

	for _, s := range c.registry.all() {
		s.mu.Lock()
		if !s.finished &&
			s.state != model.RoomPlaying &&
			len(s.participants) == 0 &&
			s.lastActive.Before(cutoff) {
			// Latch it so a caller already holding the pointer treats it as gone.
			s.finished = true
			c.registry.removeSession(s)
			reaped++
		}
		s.mu.Unlock()
	}
	return reaped
}
