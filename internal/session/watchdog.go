package session

import (
	"fmt"
	"time"
)

// watchdog enforces the idle limit.  It re-checks the clock at least
// every half limit, and also whenever the reader records activity or
// terminates.
func (s *Session) watchdog() {
	defer close(s.watchdogDone)
	defer s.recoverWorker("watchdog")

	if s.idleTimeout <= 0 {
		<-s.clock.done
		return
	}

	interval := s.idleTimeout / 2
	if interval <= 0 {
		interval = s.idleTimeout
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		last, terminated := s.clock.snapshot()
		if terminated {
			return
		}

		idle := time.Since(last)
		if idle > s.idleTimeout && !s.interp.DataTransferActive() {
			s.expire(idle)
			return
		}

		select {
		case <-s.clock.done:
			return
		case <-s.clock.wake:
		case <-timer.C:
		}
		timer.Reset(interval)
	}
}

// expire sends the idle notice and stops the session.
func (s *Session) expire(idle time.Duration) {
	if s.stopping() {
		return
	}

	notice := fmt.Sprintf("426 No operations for %d+ seconds. Bye!\r\n", int(s.idleTimeout/time.Second))
	_ = s.conn.SetWriteDeadline(time.Now().Add(noticeWriteTimeout))
	if s.stopping() {
		// A Stop that raced the line above must not lose its deadline.
		_ = s.conn.SetWriteDeadline(aLongTimeAgo)
	}
	n, err := s.conn.Write(encode(s.enc, notice))
	s.opts.Metrics.BytesSent(int64(n))
	if err != nil {
		s.logger.Debug("idle notice: %v", err)
	}

	s.opts.Notifier.Notify(s.id, fmt.Sprintf("Idle timeout: no operations for %s", idle.Round(time.Second)))
	s.logger.Info("idle for %s (limit %s), closing session", idle.Round(time.Millisecond), s.idleTimeout)
	s.opts.Metrics.IdleTimeout()

	s.Stop()
}
