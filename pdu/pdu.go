// Package pdu implements the SMPP wire codec: the 16-byte big-endian header
// and the mandatory bodies plus optional parameters of the client-side
// command set. It is a pure codec; sessions live in package session.
package pdu

import (
	"fmt"
	"io"
)

// Body is the decoded, command-specific part of a PDU.
type Body interface {
	// CommandID reports which command the body belongs to.
	CommandID() uint32
	// Marshal appends the wire form of the body.
	Marshal(w *writer) error
	// Unmarshal parses the wire form of the body.
	Unmarshal(r *reader) error
}

// PDU couples a decoded header with its decoded body. Body is nil for
// commands without one (enquire_link, unbind, generic_nack and friends).
type PDU struct {
	Header Header
	Body   Body
}

// Ok reports a response with zero command_status.
func (p *PDU) Ok() bool {
	return p.Header.CommandStatus == StatusOK
}

// Marshal produces the complete frame for a command, computing
// command_length. Field validation errors (StringError) surface here,
// before any I/O happens.
func Marshal(commandID uint32, status Status, sequence uint32, body Body) ([]byte, error) {
	w := &writer{}
	if body != nil {
		if err := body.Marshal(w); err != nil {
			return nil, err
		}
	}
	h := Header{
		CommandLength:  uint32(HeaderLength + len(w.buf)),
		CommandID:      commandID,
		CommandStatus:  status,
		SequenceNumber: sequence,
	}
	frame := make([]byte, 0, h.CommandLength)
	frame = h.appendTo(frame)
	frame = append(frame, w.buf...)
	return frame, nil
}

// WriteTo marshals and writes a complete PDU in one call.
func WriteTo(w io.Writer, commandID uint32, status Status, sequence uint32, body Body) error {
	frame, err := Marshal(commandID, status, sequence, body)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Decode parses a body according to the command id of its header. Commands
// without a defined body decode to a nil Body; unknown command ids decode to
// nil as well, the caller decides how to answer them.
func Decode(h Header, body []byte) (*PDU, error) {
	b := newBody(h.CommandID)
	if b == nil {
		return &PDU{Header: h}, nil
	}
	// A response with non-zero status may legally omit its body.
	if h.IsResponse() && h.CommandStatus != StatusOK && len(body) == 0 {
		return &PDU{Header: h, Body: b}, nil
	}
	r := &reader{buf: body}
	if err := b.Unmarshal(r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CommandName(h.CommandID), err)
	}
	if err := r.err(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", CommandName(h.CommandID), err)
	}
	return &PDU{Header: h, Body: b}, nil
}

func newBody(commandID uint32) Body {
	switch commandID {
	case BindReceiver, BindTransmitter, BindTransceiver:
		return &Bind{commandID: commandID}
	case BindReceiverResp, BindTransmitterResp, BindTransceiverResp:
		return &BindResp{commandID: commandID}
	case Outbind:
		return &OutbindBody{}
	case SubmitSM:
		return &SubmitSMBody{}
	case SubmitSMResp:
		return &SubmitSMRespBody{}
	case SubmitMulti:
		return &SubmitMultiBody{}
	case SubmitMultiResp:
		return &SubmitMultiRespBody{}
	case DeliverSM:
		return &DeliverSMBody{}
	case DeliverSMResp:
		return &DeliverSMRespBody{}
	case DataSM:
		return &DataSMBody{}
	case DataSMResp:
		return &DataSMRespBody{}
	case QuerySM:
		return &QuerySMBody{}
	case QuerySMResp:
		return &QuerySMRespBody{}
	case CancelSM:
		return &CancelSMBody{}
	case ReplaceSM:
		return &ReplaceSMBody{}
	case AlertNotification:
		return &AlertNotificationBody{}
	case EnquireLink, EnquireLinkResp, Unbind, UnbindResp,
		CancelSMResp, ReplaceSMResp, GenericNack:
		return nil
	default:
		return nil
	}
}
