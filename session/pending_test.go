package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"smppc/pdu"
)

func TestPendingCompleteDeliversSamePDU(t *testing.T) {
	table := newPendingTable()
	entry, err := table.insert(7)
	if err != nil {
		t.Fatal(err)
	}
	want := &pdu.PDU{Header: pdu.Header{CommandID: pdu.SubmitSMResp, SequenceNumber: 7}}
	go table.complete(7, want)

	got, err := table.await(entry, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatal("await returned a different pdu than complete supplied")
	}
	if table.size() != 0 {
		t.Fatalf("table size = %d after completion, want 0", table.size())
	}
}

func TestPendingDuplicateInsert(t *testing.T) {
	table := newPendingTable()
	if _, err := table.insert(1); err != nil {
		t.Fatal(err)
	}
	if _, err := table.insert(1); !errors.Is(err, ErrDuplicateSequence) {
		t.Fatalf("err = %v, want ErrDuplicateSequence", err)
	}
}

func TestPendingTimeoutRemovesEntry(t *testing.T) {
	table := newPendingTable()
	entry, _ := table.insert(3)
	_, err := table.await(entry, 20*time.Millisecond)
	var timeout ResponseTimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want ResponseTimeoutError", err)
	}
	if table.contains(3) {
		t.Fatal("entry survived its timeout")
	}
}

func TestPendingCompleteUnknownSequence(t *testing.T) {
	table := newPendingTable()
	if table.complete(42, &pdu.PDU{}) {
		t.Fatal("complete reported success for an unknown sequence")
	}
}

func TestPendingExactlyOnceCompletion(t *testing.T) {
	table := newPendingTable()
	entry, _ := table.insert(5)

	first := &pdu.PDU{Header: pdu.Header{SequenceNumber: 5}}
	if !entry.complete(first) {
		t.Fatal("first completion rejected")
	}
	if entry.complete(&pdu.PDU{}) {
		t.Fatal("second completion accepted")
	}
	if entry.fail(errors.New("late")) {
		t.Fatal("fail accepted after completion")
	}
	got, err := table.await(entry, time.Second)
	if err != nil || got != first {
		t.Fatalf("await = (%v, %v), want the first pdu", got, err)
	}
}

func TestPendingDrainAll(t *testing.T) {
	table := newPendingTable()
	const n = 10
	entries := make([]*pendingResponse, n)
	for i := 0; i < n; i++ {
		entries[i], _ = table.insert(uint32(i + 1))
	}
	table.drainAll(ErrSessionClosed)
	for i, entry := range entries {
		_, err := table.await(entry, time.Second)
		if !errors.Is(err, ErrSessionClosed) {
			t.Fatalf("entry %d: err = %v, want ErrSessionClosed", i, err)
		}
	}
	if table.size() != 0 {
		t.Fatalf("table size = %d after drain, want 0", table.size())
	}
}

func TestSequenceSkipsZeroAndWraps(t *testing.T) {
	var s sequence
	s.value.Store(maxSequence - 1)
	if got := s.next(nil); got != maxSequence {
		t.Fatalf("next = %d, want %d", got, maxSequence)
	}
	if got := s.next(nil); got != 1 {
		t.Fatalf("next after wrap = %d, want 1", got)
	}
}

func TestSequenceSkipsPending(t *testing.T) {
	var s sequence
	blocked := map[uint32]bool{1: true, 2: true}
	if got := s.next(func(v uint32) bool { return blocked[v] }); got != 3 {
		t.Fatalf("next = %d, want 3", got)
	}
}

// TestSequenceUniqueUnderConcurrency allocates from many goroutines at once;
// every issued value must be distinct.
func TestSequenceUniqueUnderConcurrency(t *testing.T) {
	var s sequence
	const workers, perWorker = 8, 1000
	var mu sync.Mutex
	seen := make(map[uint32]bool, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint32, 0, perWorker)
			for j := 0; j < perWorker; j++ {
				local = append(local, s.next(nil))
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				if seen[v] {
					t.Errorf("sequence %d issued twice", v)
					return
				}
				seen[v] = true
			}
		}()
	}
	wg.Wait()
}
