package pdu

import "encoding/binary"

// Optional parameter tags used by the covered commands.
const (
	TagSCInterfaceVersion  uint16 = 0x0210
	TagSarMsgRefNum        uint16 = 0x020C
	TagSarTotalSegments    uint16 = 0x020E
	TagSarSegmentSeqnum    uint16 = 0x020F
	TagUserMessageRef      uint16 = 0x0204
	TagSourcePort          uint16 = 0x020A
	TagDestinationPort     uint16 = 0x020B
	TagMessagePayload      uint16 = 0x0424
	TagMessageState        uint16 = 0x0427
	TagNetworkErrorCode    uint16 = 0x0423
	TagReceiptedMessageID  uint16 = 0x001E
	TagMsAvailabilityState uint16 = 0x0422
	TagMoreMessagesToSend  uint16 = 0x0426
)

// TLV is one optional parameter in tag-length-value form. Unknown tags are
// carried through opaquely.
type TLV struct {
	Tag   uint16
	Value []byte
}

// TLVByte builds a single-octet optional parameter.
func TLVByte(tag uint16, v byte) TLV {
	return TLV{Tag: tag, Value: []byte{v}}
}

// TLVString builds an optional parameter from a string value.
func TLVString(tag uint16, v string) TLV {
	return TLV{Tag: tag, Value: []byte(v)}
}

// Byte returns the first value octet, or 0 for an empty value.
func (t TLV) Byte() byte {
	if len(t.Value) == 0 {
		return 0
	}
	return t.Value[0]
}

func (t TLV) String() string {
	return string(t.Value)
}

// FindTLV returns the first parameter with the given tag.
func FindTLV(params []TLV, tag uint16) (TLV, bool) {
	for _, p := range params {
		if p.Tag == tag {
			return p, true
		}
	}
	return TLV{}, false
}

func appendTLVs(w *writer, params []TLV) {
	for _, p := range params {
		var hdr [4]byte
		binary.BigEndian.PutUint16(hdr[0:2], p.Tag)
		binary.BigEndian.PutUint16(hdr[2:4], uint16(len(p.Value)))
		w.bytes(hdr[:])
		w.bytes(p.Value)
	}
}

func readTLVs(r *reader) []TLV {
	var params []TLV
	for r.fail == nil && r.pos < len(r.buf) {
		hdr := r.take(4)
		if hdr == nil {
			break
		}
		tag := binary.BigEndian.Uint16(hdr[0:2])
		length := int(binary.BigEndian.Uint16(hdr[2:4]))
		value := r.take(length)
		if r.fail != nil {
			break
		}
		params = append(params, TLV{Tag: tag, Value: append([]byte(nil), value...)})
	}
	return params
}
