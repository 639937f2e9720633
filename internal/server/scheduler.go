package server

import (
	"log"
	"time"

	"github.com/mohammad-safakhou/searchchat/session"
)

// Sweeper periodically evicts expired sessions.
type Sweeper struct {
	Store    session.Store
	Interval time.Duration
	Stop     chan struct{}
	Logger   *log.Logger
}

func (s *Sweeper) Start() {
	ticker := time.NewTicker(s.Interval)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case now := <-ticker.C:
				s.tick(now)
			}
		}
	}()
}

func (s *Sweeper) tick(now time.Time) {
	if n := s.Store.Sweep(now); n > 0 && s.Logger != nil {
		s.Logger.Printf("evicted %d expired sessions", n)
	}
}
