package session

import "smppc/pdu"

// StateListener observes accepted session state transitions. Listeners run
// on the transitioning goroutine; a panicking listener is logged and skipped
// without affecting the transition or the other listeners.
type StateListener func(newState, oldState State, s *Session)

// DataSMResult is what an application returns for an accepted data_sm; it
// becomes the data_sm_resp.
type DataSMResult struct {
	MessageID          string
	OptionalParameters []pdu.TLV
}

// MessageReceiverListener receives SMSC-initiated PDUs. Callbacks run on
// processor pool workers. Returning an error built with RejectWith answers
// with that status; any other error, or a panic, answers with
// ESME_RX_T_APPN. Failures never terminate the session.
type MessageReceiverListener interface {
	// OnAcceptDeliverSM handles a deliver_sm. A nil error acknowledges it.
	OnAcceptDeliverSM(deliver *pdu.DeliverSMBody) error
	// OnAcceptDataSM handles a data_sm; the result is sent back as
	// data_sm_resp.
	OnAcceptDataSM(data *pdu.DataSMBody, s *Session) (*DataSMResult, error)
	// OnAcceptAlertNotification handles an alert_notification. There is no
	// response PDU for it.
	OnAcceptAlertNotification(alert *pdu.AlertNotificationBody)
}
