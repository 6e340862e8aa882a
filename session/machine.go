package session

import (
	"smppc/pdu"
)

// action is what the state machine does with an inbound command in a given
// state.
type action uint8

const (
	actResolve    action = iota // response: correlate via the pending table
	actEnquire                  // answer enquire_link
	actDeliver                  // hand deliver_sm to the application
	actData                     // hand data_sm to the application
	actAlert                    // hand alert_notification to the application
	actUnbind                   // peer-initiated unbind
	actUnbindResp               // our unbind was answered
	actOutbind                  // SMSC asks for an outbound bind
	actReject                   // request illegal in this state: ESME_RINVBNDSTS
	actDrop                     // ignore with log
)

// stateRow is the dispatch table of one session state: inbound command id to
// action. Commands missing from the row fall back to actReject for requests
// and actDrop for responses; unknown command ids are answered with
// generic_nack(ESME_RINVCMDID) before the row is consulted.
type stateRow map[uint32]action

// resolveSet lists every response the engine itself may be waiting on.
var resolveSet = []uint32{
	pdu.BindReceiverResp, pdu.BindTransmitterResp, pdu.BindTransceiverResp,
	pdu.SubmitSMResp, pdu.SubmitMultiResp, pdu.QuerySMResp, pdu.CancelSMResp,
	pdu.ReplaceSMResp, pdu.DataSMResp, pdu.EnquireLinkResp, pdu.GenericNack,
}

func respRow(extra map[uint32]action) stateRow {
	row := stateRow{}
	for _, id := range resolveSet {
		row[id] = actResolve
	}
	for id, act := range extra {
		row[id] = act
	}
	return row
}

var stateRows = map[State]*stateRow{
	Closed: rowPtr(stateRow{}),

	// Only bind responses are expected by a client in OPEN; apart from
	// outbind, everything the peer initiates here is out of order.
	Open: rowPtr(stateRow{
		pdu.BindReceiverResp:    actResolve,
		pdu.BindTransmitterResp: actResolve,
		pdu.BindTransceiverResp: actResolve,
		pdu.EnquireLinkResp:     actResolve,
		pdu.GenericNack:         actResolve,
		pdu.Outbind:             actOutbind,
	}),

	// OUTBOUND is entered on an inbound outbind. This row resolves bind
	// responses and answers enquire_link; the session itself does not send a
	// bind from this state.
	Outbound: rowPtr(stateRow{
		pdu.BindReceiverResp:    actResolve,
		pdu.BindTransmitterResp: actResolve,
		pdu.BindTransceiverResp: actResolve,
		pdu.EnquireLinkResp:     actResolve,
		pdu.GenericNack:         actResolve,
		pdu.EnquireLink:         actEnquire,
	}),

	BoundTX: rowPtr(respRow(map[uint32]action{
		pdu.EnquireLink: actEnquire,
		pdu.Unbind:      actUnbind,
		pdu.UnbindResp:  actUnbindResp,
		// message delivery needs a receiver bind
		pdu.DeliverSM:         actReject,
		pdu.DataSM:            actReject,
		pdu.AlertNotification: actDrop,
	})),

	BoundRX: rowPtr(respRow(map[uint32]action{
		pdu.EnquireLink:       actEnquire,
		pdu.Unbind:            actUnbind,
		pdu.UnbindResp:        actUnbindResp,
		pdu.DeliverSM:         actDeliver,
		pdu.DataSM:            actData,
		pdu.AlertNotification: actAlert,
	})),

	BoundTRX: rowPtr(respRow(map[uint32]action{
		pdu.EnquireLink:       actEnquire,
		pdu.Unbind:            actUnbind,
		pdu.UnbindResp:        actUnbindResp,
		pdu.DeliverSM:         actDeliver,
		pdu.DataSM:            actData,
		pdu.AlertNotification: actAlert,
	})),

	// Late responses still unblock their callers; new work is refused.
	Unbound: rowPtr(respRow(map[uint32]action{
		pdu.EnquireLink: actEnquire,
		pdu.UnbindResp:  actUnbindResp,
	})),
}

func rowPtr(r stateRow) *stateRow {
	return &r
}

func rowFor(s State) *stateRow {
	if row, ok := stateRows[s]; ok {
		return row
	}
	return stateRows[Closed]
}

// actionFor applies the row's fallback rules for commands it does not name.
func (r *stateRow) actionFor(commandID uint32) action {
	if act, ok := (*r)[commandID]; ok {
		return act
	}
	if pdu.IsResponse(commandID) {
		return actDrop
	}
	return actReject
}
