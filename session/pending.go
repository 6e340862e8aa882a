package session

import (
	"strconv"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"smppc/pdu"
)

// pendingResponse is the slot a caller waits on between sending a request
// and its response being correlated back. Completed exactly once.
type pendingResponse struct {
	sequence uint32
	done     chan struct{}
	settled  atomic.Bool
	resp     *pdu.PDU
	err      error
}

func (p *pendingResponse) complete(resp *pdu.PDU) bool {
	if !p.settled.CompareAndSwap(false, true) {
		return false
	}
	p.resp = resp
	close(p.done)
	return true
}

func (p *pendingResponse) fail(err error) bool {
	if !p.settled.CompareAndSwap(false, true) {
		return false
	}
	p.err = err
	close(p.done)
	return true
}

// pendingTable correlates outstanding sequence numbers with their waiters.
// At most one entry per sequence number.
type pendingTable struct {
	entries cmap.ConcurrentMap[string, *pendingResponse]
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: cmap.New[*pendingResponse]()}
}

func key(sequence uint32) string {
	return strconv.FormatUint(uint64(sequence), 10)
}

// insert reserves the slot for a sequence number. Failing means the caller
// allocated a sequence number that is still outstanding.
func (t *pendingTable) insert(sequence uint32) (*pendingResponse, error) {
	p := &pendingResponse{sequence: sequence, done: make(chan struct{})}
	if !t.entries.SetIfAbsent(key(sequence), p) {
		return nil, ErrDuplicateSequence
	}
	return p, nil
}

// complete hands a response to the waiter and removes the entry. It returns
// false for an unknown sequence number.
func (t *pendingTable) complete(sequence uint32, resp *pdu.PDU) bool {
	p, ok := t.entries.Pop(key(sequence))
	if !ok {
		return false
	}
	p.complete(resp)
	return true
}

// fail signals the waiter with an error and removes the entry.
func (t *pendingTable) fail(sequence uint32, err error) bool {
	p, ok := t.entries.Pop(key(sequence))
	if !ok {
		return false
	}
	p.fail(err)
	return true
}

func (t *pendingTable) remove(sequence uint32) {
	t.entries.Remove(key(sequence))
}

func (t *pendingTable) contains(sequence uint32) bool {
	return t.entries.Has(key(sequence))
}

func (t *pendingTable) size() int {
	return t.entries.Count()
}

// await blocks until the entry is settled or the timeout elapses. On timeout
// the entry is removed before returning so a late response is treated as
// stray rather than delivered to nobody.
func (t *pendingTable) await(p *pendingResponse, timeout time.Duration) (*pdu.PDU, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.resp, p.err
	case <-timer.C:
		t.remove(p.sequence)
		return nil, ResponseTimeoutError{Sequence: p.sequence, Timeout: timeout}
	}
}

// drainAll fails every outstanding waiter. Used on close.
func (t *pendingTable) drainAll(err error) {
	for _, k := range t.entries.Keys() {
		if p, ok := t.entries.Pop(k); ok {
			p.fail(err)
		}
	}
}
