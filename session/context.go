package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// sessionContext owns the state variable, the last-activity timestamp and
// the state listener list. A single lock serializes transitions; state reads
// never take it.
type sessionContext struct {
	// lock is a semaphore-style mutex so transitions can also be attempted
	// with a bounded wait.
	lock chan struct{}

	state        atomic.Int32
	processor    atomic.Pointer[stateRow]
	lastActivity atomic.Int64 // unix millis

	mu        sync.Mutex   // guards listener list replacement
	listeners atomic.Value // []StateListener, copy-on-write

	owner *Session
	log   *logrus.Entry
}

func newSessionContext(owner *Session, log *logrus.Entry) *sessionContext {
	c := &sessionContext{
		lock:  make(chan struct{}, 1),
		owner: owner,
		log:   log,
	}
	c.listeners.Store([]StateListener(nil))
	c.processor.Store(rowFor(Closed))
	c.notifyActivity()
	return c
}

func (c *sessionContext) acquire() {
	c.lock <- struct{}{}
}

func (c *sessionContext) acquireWithin(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case c.lock <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (c *sessionContext) release() {
	<-c.lock
}

// current returns the state without locking; it observes some state in the
// total transition order.
func (c *sessionContext) current() State {
	return State(c.state.Load())
}

// row returns the dispatch table row of the current state.
func (c *sessionContext) row() *stateRow {
	return c.processor.Load()
}

func (c *sessionContext) notifyActivity() {
	c.lastActivity.Store(time.Now().UnixMilli())
}

func (c *sessionContext) lastActivityTime() time.Time {
	return time.UnixMilli(c.lastActivity.Load())
}

// changeState must run with the context lock held. Redundant transitions
// are ignored without notifying listeners, and CLOSED is terminal: the only
// way out is a fresh open.
func (c *sessionContext) changeState(newState State) {
	oldState := c.current()
	if newState == oldState {
		return
	}
	if oldState == Closed && newState != Open {
		c.log.Debugf("ignoring %s transition on a closed session", newState)
		return
	}
	c.state.Store(int32(newState))
	c.processor.Store(rowFor(newState))
	c.fireStateChanged(newState, oldState)
}

func (c *sessionContext) fireStateChanged(newState, oldState State) {
	snapshot, _ := c.listeners.Load().([]StateListener)
	for _, l := range snapshot {
		c.invokeListener(l, newState, oldState)
	}
}

func (c *sessionContext) invokeListener(l StateListener, newState, oldState State) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Error("state listener failed")
		}
	}()
	l(newState, oldState, c.owner)
}

func (c *sessionContext) addListener(l StateListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, _ := c.listeners.Load().([]StateListener)
	next := make([]StateListener, len(snapshot), len(snapshot)+1)
	copy(next, snapshot)
	c.listeners.Store(append(next, l))
}

func (c *sessionContext) open() {
	c.acquire()
	defer c.release()
	c.changeState(Open)
}

func (c *sessionContext) outbound() {
	c.acquire()
	defer c.release()
	c.changeState(Outbound)
}

func (c *sessionContext) bound(t BindType) {
	c.acquire()
	defer c.release()
	c.changeState(t.BoundState())
}

func (c *sessionContext) unbound() {
	c.acquire()
	defer c.release()
	c.changeState(Unbound)
}

func (c *sessionContext) unboundWithin(timeout time.Duration) bool {
	if !c.acquireWithin(timeout) {
		return false
	}
	defer c.release()
	c.changeState(Unbound)
	return true
}

func (c *sessionContext) close() {
	c.acquire()
	defer c.release()
	c.changeState(Closed)
}

// closeWithin transitions to CLOSED unless the lock stays contended for the
// whole timeout; a listener calling back into Close lands here and degrades
// to the bounded wait instead of deadlocking.
func (c *sessionContext) closeWithin(timeout time.Duration) bool {
	if !c.acquireWithin(timeout) {
		return false
	}
	defer c.release()
	c.changeState(Closed)
	return true
}
