package session

import (
	"fmt"
	"time"

	ferrors "goftpd/internal/errors"
	"goftpd/util"
)

// readLoop is the reader worker.  It owns the receive buffer and is the
// only goroutine that reads from the connection.
func (s *Session) readLoop() {
	defer s.finish()
	defer s.recoverWorker("reader")

	if g, ok := s.interp.(Greeter); ok {
		if err := g.Greet(); err != nil {
			s.logger.Verbose("greeting failed: %v", err)
			return
		}
	}

	buf, release := s.buffer()
	defer release()

	for {
		if s.stopping() {
			s.logger.Debug("reader stopping")
			return
		}

		n, err := s.conn.Read(buf)
		if n > 0 {
			s.clock.touch(time.Now())
			s.opts.Metrics.BytesReceived(int64(n))
			if !s.dispatch(buf, n) {
				return
			}
		}
		if err != nil {
			s.readFailed(err)
			return
		}
		if n == 0 {
			s.logger.Verbose("peer closed the connection")
			return
		}
	}
}

// dispatch frames one read and processes the commands in order.  It
// reports whether the reader should keep going.
func (s *Session) dispatch(buf []byte, n int) bool {
	lines := Frame(s.enc, buf, n)
	s.opts.Metrics.CommandsFramed(len(lines))
	if len(lines) > 1 {
		s.logger.Verbose("%d commands arrived in one read, processing in order", len(lines))
	}

	for _, line := range lines {
		if s.stopping() {
			return false
		}
		s.logger.Debug("<- %s", line)
		if err := s.interp.Process(line); err != nil {
			s.processFailed(err)
			return false
		}
	}
	return true
}

func (s *Session) readFailed(err error) {
	switch {
	case s.stopping():
		s.logger.Debug("read cancelled by stop")
	case util.IsDeadline(err):
		// Only Stop arms the read deadline, so an expiry without a
		// cancelled context is an anomaly worth surfacing.
		s.logger.Warn("read cancelled unexpectedly: %v", err)
		s.opts.Metrics.RecordError(err.Error())
	case util.IsHarmless(err):
		s.logger.Verbose("peer closed the connection")
	default:
		s.logger.Verbose("read: %v", err)
	}
}

func (s *Session) processFailed(err error) {
	switch {
	case ferrors.Is(err, ferrors.ErrSessionEnd):
		s.logger.Verbose("client ended the session")
	case ferrors.IsBlocked(err):
		s.logger.Warn("user blocked, closing session")
		s.opts.Metrics.SessionBlocked()
	case s.stopping() && (util.IsHarmless(err) || util.IsDeadline(err)):
		s.logger.Debug("process after stop: %v", err)
	default:
		serr := ferrors.WrapSession(s.id, s.remote, "process", err)
		s.logger.Error("%v", serr)
		s.opts.Metrics.RecordError(serr.Error())
	}
}

// recoverWorker contains a panic at the worker boundary and cancels the
// session, so a failed watchdog never leaves it running without an idle
// policy.  The deferred teardown still runs afterwards.
func (s *Session) recoverWorker(name string) {
	if r := recover(); r != nil {
		serr := ferrors.WrapSession(s.id, s.remote, "panic", fmt.Errorf("%s: %v", name, r))
		s.logger.Error("%v", serr)
		s.opts.Metrics.RecordError(serr.Error())
		s.cancel()
	}
}

func (s *Session) buffer() ([]byte, func()) {
	if s.bufSize == util.DefaultBufSize {
		p := util.GetBuf()
		return *p, func() { util.PutBuf(p) }
	}
	return make([]byte, s.bufSize), func() {}
}
