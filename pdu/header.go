package pdu

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderLength is the fixed size of an SMPP PDU header in bytes.
const HeaderLength = 16

// MaxLength is the largest command_length this implementation accepts.
// Frames claiming more are treated as a framing error.
const MaxLength = 64 * 1024

// Header is the 16-byte header carried by every PDU, big-endian on the wire.
type Header struct {
	CommandLength  uint32
	CommandID      uint32
	CommandStatus  Status
	SequenceNumber uint32
}

// InvalidCommandLengthError reports a frame whose command_length cannot be
// honored.
type InvalidCommandLengthError struct {
	Length uint32
}

func (e InvalidCommandLengthError) Error() string {
	return fmt.Sprintf("invalid command_length %d", e.Length)
}

// ReadHeader reads and validates a PDU header. The command_length is checked
// against the 16-byte minimum and MaxLength; violations return
// InvalidCommandLengthError, I/O failures are returned as-is.
func ReadHeader(r io.Reader) (Header, error) {
	var raw [HeaderLength]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return Header{}, err
	}
	h := Header{
		CommandLength:  binary.BigEndian.Uint32(raw[0:4]),
		CommandID:      binary.BigEndian.Uint32(raw[4:8]),
		CommandStatus:  Status(binary.BigEndian.Uint32(raw[8:12])),
		SequenceNumber: binary.BigEndian.Uint32(raw[12:16]),
	}
	if h.CommandLength < HeaderLength || h.CommandLength > MaxLength {
		return h, InvalidCommandLengthError{Length: h.CommandLength}
	}
	return h, nil
}

// ReadBodyBytes reads the body that follows an already consumed header.
func ReadBodyBytes(r io.Reader, h Header) ([]byte, error) {
	n := int(h.CommandLength) - HeaderLength
	if n == 0 {
		return nil, nil
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// IsResponse reports whether this header describes a response PDU.
func (h Header) IsResponse() bool {
	return IsResponse(h.CommandID)
}

func (h Header) appendTo(dst []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, h.CommandLength)
	dst = binary.BigEndian.AppendUint32(dst, h.CommandID)
	dst = binary.BigEndian.AppendUint32(dst, uint32(h.CommandStatus))
	dst = binary.BigEndian.AppendUint32(dst, h.SequenceNumber)
	return dst
}

func (h Header) String() string {
	return fmt.Sprintf("%s seq=%d status=%s len=%d",
		CommandName(h.CommandID), h.SequenceNumber, h.CommandStatus, h.CommandLength)
}
