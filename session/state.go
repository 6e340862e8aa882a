package session

import (
	"fmt"

	"smppc/pdu"
)

// State is the SMPP session state. Legal transitions:
// CLOSED → OPEN → BOUND_TX|BOUND_RX|BOUND_TRX → UNBOUND → CLOSED, with
// any state allowed to fall directly to CLOSED on error. OUTBOUND is
// entered when the SMSC sends outbind on an open connection.
type State int32

const (
	Closed State = iota
	Open
	Outbound
	BoundTX
	BoundRX
	BoundTRX
	Unbound
)

// IsBound reports one of the three bound states.
func (s State) IsBound() bool {
	return s == BoundTX || s == BoundRX || s == BoundTRX
}

// IsTransmittable reports whether submit-class operations are legal.
func (s State) IsTransmittable() bool {
	return s == BoundTX || s == BoundTRX
}

// IsReceivable reports whether SMSC-initiated message PDUs are legal.
func (s State) IsReceivable() bool {
	return s == BoundRX || s == BoundTRX
}

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case Outbound:
		return "OUTBOUND"
	case BoundTX:
		return "BOUND_TX"
	case BoundRX:
		return "BOUND_RX"
	case BoundTRX:
		return "BOUND_TRX"
	case Unbound:
		return "UNBOUND"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// BindType selects the direction of a bind.
type BindType byte

const (
	BindTX  BindType = iota // transmitter
	BindRX                  // receiver
	BindTRX                 // transceiver
)

// CommandID returns the bind command id for the type.
func (t BindType) CommandID() uint32 {
	switch t {
	case BindTX:
		return pdu.BindTransmitter
	case BindRX:
		return pdu.BindReceiver
	default:
		return pdu.BindTransceiver
	}
}

// BoundState returns the session state entered after a successful bind.
func (t BindType) BoundState() State {
	switch t {
	case BindTX:
		return BoundTX
	case BindRX:
		return BoundRX
	default:
		return BoundTRX
	}
}

func (t BindType) String() string {
	switch t {
	case BindTX:
		return "transmitter"
	case BindRX:
		return "receiver"
	default:
		return "transceiver"
	}
}

// UnmarshalYAML accepts the bind type by name, as written in config files.
func (t *BindType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	switch name {
	case "transmitter", "tx":
		*t = BindTX
	case "receiver", "rx":
		*t = BindRX
	case "transceiver", "trx", "":
		*t = BindTRX
	default:
		return fmt.Errorf("unknown bind type %q", name)
	}
	return nil
}
