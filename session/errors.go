package session

import (
	"errors"
	"fmt"
	"time"

	"smppc/pdu"
)

var (
	// ErrSessionClosed fails every pending waiter when the session closes.
	ErrSessionClosed = errors.New("session closed")
	// ErrQueueMax reports a processor queue overflow for a request PDU.
	ErrQueueMax = errors.New("processor queue capacity exceeded")
	// ErrDuplicateSequence reports an insert for an already pending
	// sequence number. Seeing it means a bug in sequence allocation.
	ErrDuplicateSequence = errors.New("sequence number already pending")
)

// IllegalStateError reports an operation invoked while the session state
// forbids it.
type IllegalStateError struct {
	Op    string
	State State
}

func (e IllegalStateError) Error() string {
	return fmt.Sprintf("cannot %s in session state %s", e.Op, e.State)
}

// ResponseTimeoutError reports that no response arrived within the
// transaction timer. The session stays usable unless the keepalive raised it.
type ResponseTimeoutError struct {
	Op       string
	Sequence uint32
	Timeout  time.Duration
}

func (e ResponseTimeoutError) Error() string {
	return fmt.Sprintf("no response after %s for %s with sequence_number %d",
		e.Timeout, e.Op, e.Sequence)
}

// InvalidResponseError reports a response whose body could not be decoded or
// whose content fails a consistency check.
type InvalidResponseError struct {
	Reason string
}

func (e InvalidResponseError) Error() string {
	return "invalid response: " + e.Reason
}

// NegativeResponseError reports a well-formed response with a non-zero
// command_status.
type NegativeResponseError struct {
	Status pdu.Status
}

func (e NegativeResponseError) Error() string {
	return "negative response: " + e.Status.String()
}

// processRequestError carries the command_status an inbound request should
// be answered with when the application listener rejects it.
type processRequestError struct {
	Status pdu.Status
	Reason string
}

func (e *processRequestError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Reason, e.Status)
}

// RejectWith builds an error a MessageReceiverListener can return to answer
// an inbound deliver_sm or data_sm with a specific command_status.
func RejectWith(status pdu.Status, reason string) error {
	return &processRequestError{Status: status, Reason: reason}
}
