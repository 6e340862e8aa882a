package session

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"smppc/pdu"
)

// responseOfferTimeout bounds how long a response PDU may wait for a queue
// slot when the queue is full. Responses are never dropped outright: losing
// one would leak a pending table entry until its transaction timer fires.
const responseOfferTimeout = 60 * time.Second

// procTask is one inbound PDU waiting to be processed.
type procTask struct {
	sess   *Session
	header pdu.Header
	body   []byte
}

func (t procTask) run() {
	t.sess.processPDU(t.header, t.body)
}

// processorPool runs PDU processing on a fixed set of workers over a bounded
// queue. Sessions submit from their single reader goroutine; the owner
// (session or group) shuts the pool down only after every submitter has
// stopped.
type processorPool struct {
	queue   chan procTask
	wg      sync.WaitGroup
	mu      sync.Mutex
	workers int
	closed  bool
	log     *logrus.Entry
}

func newProcessorPool(capacity, workers int, log *logrus.Entry) *processorPool {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	if workers <= 0 {
		workers = 1
	}
	p := &processorPool{
		queue: make(chan procTask, capacity),
		log:   log,
	}
	p.resize(workers)
	return p
}

func (p *processorPool) worker() {
	defer p.wg.Done()
	for t := range p.queue {
		t.run()
	}
}

// resize grows the worker set to n. The pool starts serial and is enlarged
// once the session is bound; it never shrinks.
func (p *processorPool) resize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for p.workers < n {
		p.workers++
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *processorPool) depth() int {
	return len(p.queue)
}

func (p *processorPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// submit enqueues a task. A full queue throttles requests (ErrQueueMax) but
// blocks for responses, up to responseOfferTimeout.
func (p *processorPool) submit(t procTask) error {
	select {
	case p.queue <- t:
		return nil
	default:
	}
	if !t.header.IsResponse() {
		return ErrQueueMax
	}
	timer := time.NewTimer(responseOfferTimeout)
	defer timer.Stop()
	select {
	case p.queue <- t:
		return nil
	case <-timer.C:
		p.log.WithField("pdu", t.header.String()).Warn("offer to queue failed for response")
		return ErrQueueMax
	}
}

// shutdown stops accepting tasks and waits up to the timeout for the workers
// to drain the queue. Workers still busy afterwards are abandoned with a
// log line; they exit once their current task returns.
func (p *processorPool) shutdown(timeout time.Duration) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		p.log.Warn("timeout waiting for pdu processors to finish")
	}
}
