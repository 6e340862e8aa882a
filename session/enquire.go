package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// probePollInterval is how often the sender rechecks whether the session can
// still read while no probe is requested.
const probePollInterval = 500 * time.Millisecond

// enquireLinkSender drives the keepalive: the reader signals it on socket
// read timeouts and it answers with one enquire_link round trip. Signals
// coalesce; at most one probe is ever pending.
type enquireLinkSender struct {
	sess *Session

	probe    chan struct{} // capacity 1, non-blocking sends coalesce
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	self     atomic.Bool // set while this goroutine runs a probe, which may close the session
}

func newEnquireLinkSender(s *Session) *enquireLinkSender {
	return &enquireLinkSender{
		sess:   s,
		probe:  make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// signal requests a probe. A probe already pending absorbs the signal.
func (e *enquireLinkSender) signal() {
	select {
	case e.probe <- struct{}{}:
	default:
		e.sess.log.Debug("enquire_link probe already pending")
	}
}

func (e *enquireLinkSender) stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
}

// fromSelf reports whether the sender goroutine is in the middle of a probe.
// Close skips the join while it is, so a close issued by the probe itself
// never waits on its own goroutine; a Close from another goroutine during a
// probe skips the join as well.
func (e *enquireLinkSender) fromSelf() bool {
	return e.self.Load()
}

func (e *enquireLinkSender) run() {
	defer close(e.done)
	s := e.sess
	s.log.Debug("enquire link sender started")
	ticker := time.NewTicker(probePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopCh:
			s.log.Debug("enquire link sender stopped")
			return
		case <-ticker.C:
			if !s.isReadPDU() {
				return
			}
			continue
		case <-e.probe:
		}
		if !s.isReadPDU() {
			return
		}
		e.self.Store(true)
		e.probeOnce()
		e.self.Store(false)
	}
}

func (e *enquireLinkSender) probeOnce() {
	s := e.sess
	err := s.sendEnquireLink()
	if err == nil {
		return
	}
	var timeout ResponseTimeoutError
	var invalid InvalidResponseError
	switch {
	case errors.As(err, &timeout):
		s.log.WithError(err).Error("response timeout on enquire_link")
		s.Close()
	case errors.As(err, &invalid):
		s.log.WithError(err).Error("invalid response on enquire_link")
		s.UnbindAndClose()
	default:
		s.log.WithError(err).Error("i/o error on enquire_link")
		s.Close()
	}
}
